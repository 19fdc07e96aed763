package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

func (db *PgCarelineRepository) CreateAccount(params CreateAccountParams) (Account, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, email, password_hash, role, otp, verify_token, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $7) "+
			"RETURNING id, username, email, role, verified, created_at, updated_at",
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		params.Role,
		params.OTP,
		params.VerifyToken,
		time.Now().UTC(),
	)

	var a Account
	err := res.Scan(
		&a.Id,
		&a.Username,
		&a.EmailAddress,
		&a.Role,
		&a.Verified,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}

func (db *PgCarelineRepository) GetAccountById(accountId int) (Account, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, role, verified, otp, verify_token, created_at, updated_at "+
			"FROM accounts WHERE id = $1 LIMIT 1",
		accountId,
	)

	return scanAccount(row)
}

func (db *PgCarelineRepository) GetAccountByEmail(email string) (Account, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, role, verified, otp, verify_token, created_at, updated_at "+
			"FROM accounts WHERE email = $1 LIMIT 1",
		email,
	)

	return scanAccount(row)
}

func scanAccount(row *sql.Row) (Account, error) {
	var a Account
	err := row.Scan(
		&a.Id,
		&a.Username,
		&a.EmailAddress,
		&a.PasswordHash,
		&a.Role,
		&a.Verified,
		&a.OTP,
		&a.VerifyToken,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}

func (db *PgCarelineRepository) MarkAccountVerified(accountId int) error {
	res, err := db.conn.Exec(
		"UPDATE accounts SET verified = TRUE, otp = NULL, verify_token = NULL, updated_at = $2 WHERE id = $1",
		accountId,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgCarelineRepository) CreateDoctor(params CreateDoctorParams) (Doctor, error) {
	res := db.conn.QueryRow(
		"INSERT INTO doctors (account_id, specialization, contact_details, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $4) RETURNING id, account_id, specialization, contact_details",
		params.AccountId,
		params.Specialization,
		params.ContactDetails,
		time.Now().UTC(),
	)

	var d Doctor
	err := res.Scan(
		&d.Id,
		&d.AccountId,
		&d.Specialization,
		&d.ContactDetails,
	)

	return d, err
}

func (db *PgCarelineRepository) GetDoctorById(doctorId int) (Doctor, error) {
	row := db.conn.QueryRow(
		"SELECT d.id, d.account_id, d.specialization, d.contact_details, a.username "+
			"FROM doctors d JOIN accounts a ON a.id = d.account_id WHERE d.id = $1 LIMIT 1",
		doctorId,
	)

	var d Doctor
	err := row.Scan(
		&d.Id,
		&d.AccountId,
		&d.Specialization,
		&d.ContactDetails,
		&d.Username,
	)

	return d, err
}

func (db *PgCarelineRepository) GetDoctorByAccountId(accountId int) (Doctor, error) {
	row := db.conn.QueryRow(
		"SELECT d.id, d.account_id, d.specialization, d.contact_details, a.username "+
			"FROM doctors d JOIN accounts a ON a.id = d.account_id WHERE d.account_id = $1 LIMIT 1",
		accountId,
	)

	var d Doctor
	err := row.Scan(
		&d.Id,
		&d.AccountId,
		&d.Specialization,
		&d.ContactDetails,
		&d.Username,
	)

	return d, err
}

func (db *PgCarelineRepository) ListDoctors() ([]Doctor, error) {
	rows, err := db.conn.Query(
		"SELECT d.id, d.account_id, d.specialization, d.contact_details, a.username "+
			"FROM doctors d JOIN accounts a ON a.id = d.account_id ORDER BY a.username",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors = make([]Doctor, 0)
	for rows.Next() {
		var d Doctor
		if err = rows.Scan(&d.Id, &d.AccountId, &d.Specialization, &d.ContactDetails, &d.Username); err != nil {
			break
		}

		doctors = append(doctors, d)
	}

	return doctors, err
}

func (db *PgCarelineRepository) CreateAvailability(params CreateAvailabilityParams) (Availability, error) {
	res := db.conn.QueryRow(
		"INSERT INTO availabilities (doctor_id, avail_date, start_time, end_time, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5) RETURNING id, doctor_id, avail_date, start_time, end_time",
		params.DoctorId,
		params.Date,
		params.StartTime,
		params.EndTime,
		time.Now().UTC(),
	)

	var av Availability
	err := res.Scan(
		&av.Id,
		&av.DoctorId,
		&av.Date,
		&av.StartTime,
		&av.EndTime,
	)

	return av, err
}

func (db *PgCarelineRepository) GetAvailability(doctorId, availabilityId int) (Availability, error) {
	row := db.conn.QueryRow(
		"SELECT id, doctor_id, avail_date, start_time, end_time FROM availabilities "+
			"WHERE id = $1 AND doctor_id = $2 LIMIT 1",
		availabilityId,
		doctorId,
	)

	var av Availability
	err := row.Scan(
		&av.Id,
		&av.DoctorId,
		&av.Date,
		&av.StartTime,
		&av.EndTime,
	)

	return av, err
}

func (db *PgCarelineRepository) ListAvailability(doctorId int, date string) ([]Availability, error) {
	query := "SELECT id, doctor_id, avail_date, start_time, end_time FROM availabilities WHERE doctor_id = $1"
	args := []any{doctorId}
	if date != "" {
		query += " AND avail_date = $2"
		args = append(args, date)
	}
	query += " ORDER BY avail_date, start_time"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows = make([]Availability, 0)
	for rows.Next() {
		var av Availability
		if err = rows.Scan(&av.Id, &av.DoctorId, &av.Date, &av.StartTime, &av.EndTime); err != nil {
			break
		}

		windows = append(windows, av)
	}

	return windows, err
}

func (db *PgCarelineRepository) DeleteAvailability(availabilityId int) error {
	res, err := db.conn.Exec("DELETE FROM availabilities WHERE id = $1", availabilityId)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// CreateConsultation inserts the consultation only if no non-Rejected
// consultation on the same availability window overlaps the requested
// range. The guard and the insert are a single statement, so two racing
// bookings for overlapping slots cannot both land. Returns sql.ErrNoRows
// when the guard rejects the insert.
func (db *PgCarelineRepository) CreateConsultation(params CreateConsultationParams) (Consultation, error) {
	imageRefs, err := json.Marshal(params.ImageRefs)
	if err != nil {
		return Consultation{}, fmt.Errorf("marshal image refs: %w", err)
	}

	res := db.conn.QueryRow(
		"INSERT INTO consultations (patient_id, doctor_id, availability_id, reason, description, image_refs, start_time, end_time, created_at, updated_at) "+
			"SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $9 "+
			"WHERE NOT EXISTS ("+
			"SELECT 1 FROM consultations WHERE availability_id = $3 AND status <> 'Rejected' "+
			"AND start_time < $8 AND end_time > $7"+
			") RETURNING id, status, created_at",
		params.PatientId,
		params.DoctorId,
		params.AvailabilityId,
		params.Reason,
		params.Description,
		imageRefs,
		params.StartTime,
		params.EndTime,
		time.Now().UTC(),
	)

	c := Consultation{
		PatientId:      params.PatientId,
		DoctorId:       params.DoctorId,
		AvailabilityId: params.AvailabilityId,
		Reason:         params.Reason,
		Description:    params.Description,
		ImageRefs:      params.ImageRefs,
		StartTime:      params.StartTime,
		EndTime:        params.EndTime,
	}
	err = res.Scan(&c.Id, &c.Status, &c.CreatedAt)

	return c, err
}

func (db *PgCarelineRepository) GetConsultationById(consultationId int) (Consultation, error) {
	row := db.conn.QueryRow(
		"SELECT id, patient_id, doctor_id, availability_id, reason, description, image_refs, status, start_time, end_time, created_at, updated_at "+
			"FROM consultations WHERE id = $1 LIMIT 1",
		consultationId,
	)

	var c Consultation
	var imageRefs []byte
	err := row.Scan(
		&c.Id,
		&c.PatientId,
		&c.DoctorId,
		&c.AvailabilityId,
		&c.Reason,
		&c.Description,
		&imageRefs,
		&c.Status,
		&c.StartTime,
		&c.EndTime,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return Consultation{}, err
	}

	if err := json.Unmarshal(imageRefs, &c.ImageRefs); err != nil {
		return Consultation{}, fmt.Errorf("unmarshal image refs: %w", err)
	}

	return c, nil
}

func (db *PgCarelineRepository) ListConsultationsByDoctor(doctorId int) ([]Consultation, error) {
	rows, err := db.conn.Query(
		"SELECT id, patient_id, doctor_id, availability_id, status, start_time, end_time "+
			"FROM consultations WHERE doctor_id = $1",
		doctorId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var consultations = make([]Consultation, 0)
	for rows.Next() {
		var c Consultation
		if err = rows.Scan(&c.Id, &c.PatientId, &c.DoctorId, &c.AvailabilityId, &c.Status, &c.StartTime, &c.EndTime); err != nil {
			break
		}

		consultations = append(consultations, c)
	}

	return consultations, err
}

// UpdateConsultationStatus transitions the status only if the row still
// holds the expected current status, making the transition a per-row
// atomic compare-and-set. Returns sql.ErrNoRows when the row is missing
// or its status changed underneath the caller.
func (db *PgCarelineRepository) UpdateConsultationStatus(consultationId int, from, to string) error {
	res, err := db.conn.Exec(
		"UPDATE consultations SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2",
		consultationId,
		from,
		to,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

const consultationDetailQuery = `
	SELECT
			c.id,
			c.patient_id,
			c.doctor_id,
			c.availability_id,
			c.status,
			c.start_time,
			c.end_time,
			da.username AS doctor_name,
			d.specialization,
			pa.username AS patient_name,
			av.avail_date,
			av.start_time AS window_start,
			av.end_time AS window_end
	FROM consultations c
	JOIN doctors d ON d.id = c.doctor_id
	JOIN accounts da ON da.id = d.account_id
	JOIN accounts pa ON pa.id = c.patient_id
	LEFT JOIN availabilities av ON av.id = c.availability_id
`

func (db *PgCarelineRepository) ListPatientConsultations(patientId int) ([]ConsultationDetail, error) {
	return db.listConsultationDetails(consultationDetailQuery+" WHERE c.patient_id = $1", patientId)
}

func (db *PgCarelineRepository) ListDoctorConsultations(doctorId int) ([]ConsultationDetail, error) {
	return db.listConsultationDetails(consultationDetailQuery+" WHERE c.doctor_id = $1", doctorId)
}

func (db *PgCarelineRepository) listConsultationDetails(query string, id int) ([]ConsultationDetail, error) {
	rows, err := db.conn.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("list consultation details: %w", err)
	}
	defer rows.Close()

	var details = make([]ConsultationDetail, 0)
	for rows.Next() {
		var cd ConsultationDetail
		err := rows.Scan(
			&cd.Id,
			&cd.PatientId,
			&cd.DoctorId,
			&cd.AvailabilityId,
			&cd.Status,
			&cd.StartTime,
			&cd.EndTime,
			&cd.DoctorName,
			&cd.Specialization,
			&cd.PatientName,
			&cd.WindowDate,
			&cd.WindowStart,
			&cd.WindowEnd,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		details = append(details, cd)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return details, nil
}

func (db *PgCarelineRepository) ListAcceptedDoctors(patientId int) ([]Doctor, error) {
	rows, err := db.conn.Query(
		"SELECT DISTINCT d.id, d.account_id, d.specialization, d.contact_details, a.username "+
			"FROM consultations c "+
			"JOIN doctors d ON d.id = c.doctor_id "+
			"JOIN accounts a ON a.id = d.account_id "+
			"WHERE c.patient_id = $1 AND c.status = 'Accepted'",
		patientId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors = make([]Doctor, 0)
	for rows.Next() {
		var d Doctor
		if err = rows.Scan(&d.Id, &d.AccountId, &d.Specialization, &d.ContactDetails, &d.Username); err != nil {
			break
		}

		doctors = append(doctors, d)
	}

	return doctors, err
}

func (db *PgCarelineRepository) ListAcceptedPatients(doctorId int) ([]Account, error) {
	rows, err := db.conn.Query(
		"SELECT DISTINCT a.id, a.username FROM consultations c "+
			"JOIN accounts a ON a.id = c.patient_id "+
			"WHERE c.doctor_id = $1 AND c.status = 'Accepted'",
		doctorId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients = make([]Account, 0)
	for rows.Next() {
		var a Account
		if err = rows.Scan(&a.Id, &a.Username); err != nil {
			break
		}

		patients = append(patients, a)
	}

	return patients, err
}

// AppendConversationMessage finds or creates the conversation for the
// normalized pair and appends the entry to its embedded message list in
// one statement. The JSONB concatenation runs inside the row update, so
// concurrent sends to the same pair cannot lose entries; the unique pair
// constraint folds a racing create into an append.
func (db *PgCarelineRepository) AppendConversationMessage(participantA, participantB int, externalId string, entry []byte) (Conversation, error) {
	res := db.conn.QueryRow(
		"INSERT INTO conversations (participant_a, participant_b, external_id, messages, created_at, updated_at) "+
			"VALUES ($1, $2, $3, jsonb_build_array($4::jsonb), $5, $5) "+
			"ON CONFLICT (participant_a, participant_b) "+
			"DO UPDATE SET messages = conversations.messages || $4::jsonb, updated_at = $5 "+
			"RETURNING id, external_id, participant_a, participant_b",
		participantA,
		participantB,
		externalId,
		entry,
		time.Now().UTC(),
	)

	var conv Conversation
	err := res.Scan(
		&conv.Id,
		&conv.ExternalId,
		&conv.ParticipantA,
		&conv.ParticipantB,
	)

	return conv, err
}

func (db *PgCarelineRepository) GetConversation(participantA, participantB int) (Conversation, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, participant_a, participant_b, messages, created_at, updated_at "+
			"FROM conversations WHERE participant_a = $1 AND participant_b = $2 LIMIT 1",
		participantA,
		participantB,
	)

	var conv Conversation
	err := row.Scan(
		&conv.Id,
		&conv.ExternalId,
		&conv.ParticipantA,
		&conv.ParticipantB,
		&conv.Messages,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)

	return conv, err
}

func (db *PgCarelineRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	res := db.conn.QueryRow(
		"INSERT INTO messages (conversation_id, sender_id, receiver_id, sender_role, body, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		params.ConversationId,
		params.SenderId,
		params.ReceiverId,
		params.SenderRole,
		params.Body,
		params.CreatedAt,
	)

	msg := Message{
		ConversationId: params.ConversationId,
		SenderId:       params.SenderId,
		ReceiverId:     params.ReceiverId,
		SenderRole:     params.SenderRole,
		Body:           params.Body,
		CreatedAt:      params.CreatedAt,
	}
	err := res.Scan(&msg.Id)

	return msg, err
}

func (db *PgCarelineRepository) ListMessageLog(conversationId, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.conn.Query(
		"SELECT id, conversation_id, sender_id, receiver_id, sender_role, body, created_at "+
			"FROM messages WHERE conversation_id = $1 ORDER BY id DESC LIMIT $2",
		conversationId,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages = make([]Message, 0, limit)
	for rows.Next() {
		var msg Message
		if err = rows.Scan(&msg.Id, &msg.ConversationId, &msg.SenderId, &msg.ReceiverId, &msg.SenderRole, &msg.Body, &msg.CreatedAt); err != nil {
			break
		}

		messages = append(messages, msg)
	}

	return messages, err
}
