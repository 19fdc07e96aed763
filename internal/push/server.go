package push

import (
	"context"
	"log"
	"sync"

	"github.com/careline/go-careline/internal/messaging"
	"github.com/careline/go-careline/internal/stats"
)

// PushServer fans realtime notifications out to connected clients.
// Clients are keyed by account id; one account may hold several
// connections (multiple tabs or devices) and each receives every
// notification addressed to that account.
type PushServer struct {
	log            *log.Logger
	messages       *messaging.Service
	stats          stats.StatsProvider
	clients        map[int]map[*Client]struct{}
	clientsLock    sync.Mutex
	RegisterChan   chan *Client
	deRegisterChan chan *Client
	deliverChan    chan *delivery
	stop           chan struct{}
	done           chan struct{}
}

type delivery struct {
	accountId int
	msg       *ServerMessage
}

func NewPushServer(logger *log.Logger, messages *messaging.Service, sp stats.StatsProvider) *PushServer {
	return &PushServer{
		log:            logger,
		messages:       messages,
		stats:          sp,
		clients:        make(map[int]map[*Client]struct{}),
		RegisterChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		deliverChan:    make(chan *delivery, 256),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

func (ps *PushServer) Run() {
	for {
		select {
		case client := <-ps.RegisterChan:
			ps.log.Printf("adding connection for account %d", client.session.UserId)
			ps.addClient(client)
			ps.stats.Incr(stats.ActiveConnections)
		case client := <-ps.deRegisterChan:
			ps.log.Printf("removing connection for account %d", client.session.UserId)
			ps.removeClient(client)
			ps.stats.Decr(stats.ActiveConnections)
		case d := <-ps.deliverChan:
			ps.deliverLocal(d)
		case <-ps.stop:
			ps.log.Println("closing client connections")
			ps.closeAll()
			close(ps.done)
			return
		}
	}
}

// Deliver queues a notification for every open connection of the given
// account. Accounts with no connection drop the notification; the
// message itself is already durable.
func (ps *PushServer) Deliver(accountId int, msg *ServerMessage) {
	select {
	case ps.deliverChan <- &delivery{accountId: accountId, msg: msg}:
	default:
		ps.log.Printf("deliver channel full, dropping notification for account %d", accountId)
	}
}

func (ps *PushServer) RegisterClient(c *Client) {
	ps.RegisterChan <- c
}

func (ps *PushServer) Shutdown(ctx context.Context) error {
	close(ps.stop)

	select {
	case <-ps.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (ps *PushServer) deliverLocal(d *delivery) {
	ps.clientsLock.Lock()
	defer ps.clientsLock.Unlock()

	for c := range ps.clients[d.accountId] {
		c.queueMessage(d.msg)
	}
}

func (ps *PushServer) addClient(c *Client) {
	ps.clientsLock.Lock()
	defer ps.clientsLock.Unlock()

	conns, ok := ps.clients[c.session.UserId]
	if !ok {
		conns = make(map[*Client]struct{})
		ps.clients[c.session.UserId] = conns
	}
	conns[c] = struct{}{}
}

func (ps *PushServer) removeClient(c *Client) {
	ps.clientsLock.Lock()
	defer ps.clientsLock.Unlock()

	if conns, ok := ps.clients[c.session.UserId]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(ps.clients, c.session.UserId)
		}
	}
}

func (ps *PushServer) closeAll() {
	ps.clientsLock.Lock()
	defer ps.clientsLock.Unlock()

	for _, conns := range ps.clients {
		for c := range conns {
			c.stopClient()
		}
	}
	ps.clients = make(map[int]map[*Client]struct{})
}
