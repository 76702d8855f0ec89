package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"antfarm/internal/domain"
)

// antRow is the persisted shape of a domain.Ant.
type antRow struct {
	ID                string `gorm:"primaryKey;size:36"`
	OwnerID           string `gorm:"index;size:36;not null"`
	Name              string `gorm:"size:100;not null"`
	Model             string `gorm:"size:64"`
	PersonalityPrompt string `gorm:"type:text"`
	IntervalSeconds   int
	Enabled           bool
	ReplyEvenIfNoNew  bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (*antRow) TableName() string { return "ants" }

type assignmentRow struct {
	AntID             string `gorm:"primaryKey;size:36"`
	RoomID            string `gorm:"primaryKey;index;size:36"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LastSeenMessageID string `gorm:"size:36"`
	LastRunAt         time.Time
	RoleID            string `gorm:"size:64"`
	RoleName          string `gorm:"size:100"`
	RollingSummary    string `gorm:"type:text"`
	SummaryMsgCounter int
	ThoughtJSON       string `gorm:"type:text"`
}

func (*assignmentRow) TableName() string { return "ant_room_assignments" }

type runRow struct {
	ID         string `gorm:"primaryKey;size:36"`
	AntID      string `gorm:"index;size:36;not null"`
	OwnerID    string `gorm:"size:36"`
	RoomID     string `gorm:"size:36"`
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string `gorm:"size:16"`
	Notes      string `gorm:"type:text"`
	Error      string `gorm:"type:text"`
}

func (*runRow) TableName() string { return "ant_runs" }

type messageRow struct {
	ID         string `gorm:"primaryKey;size:36"`
	RoomID     string `gorm:"index;size:36;not null"`
	AuthorType string `gorm:"size:16"`
	AuthorID   string `gorm:"size:36"`
	AuthorName string `gorm:"size:100"`
	Content    string `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"index"`
}

func (*messageRow) TableName() string { return "messages" }

type roomRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:100"`
	Scenario  string `gorm:"type:text"`
	CreatedAt time.Time
}

func (*roomRow) TableName() string { return "rooms" }

type roleRow struct {
	RoomID string `gorm:"primaryKey;size:36"`
	RoleID string `gorm:"primaryKey;size:64"`
	Name   string `gorm:"size:100"`
	Prompt string `gorm:"type:text"`
}

func (*roleRow) TableName() string { return "room_roles" }

// OpenSQLite opens (or creates) the database at path and returns a migrated
// Store. Use ":memory:" for an ephemeral database.
func OpenSQLite(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&antRow{}, &assignmentRow{}, &runRow{}, &messageRow{}, &roomRow{}, &roleRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{
		Ants:        &sqliteAnts{db: db},
		Assignments: &sqliteAssignments{db: db},
		Runs:        &sqliteRuns{db: db},
		Messages:    &sqliteMessages{db: db},
		Rooms:       &sqliteRooms{db: db},
		Roles:       &sqliteRoles{db: db},
	}, nil
}

func mapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

type sqliteAnts struct {
	db *gorm.DB
}

func toAntRow(a domain.Ant) antRow {
	return antRow{
		ID:                a.ID,
		OwnerID:           a.OwnerID,
		Name:              a.Name,
		Model:             string(a.Model),
		PersonalityPrompt: a.PersonalityPrompt,
		IntervalSeconds:   a.IntervalSeconds,
		Enabled:           a.Enabled,
		ReplyEvenIfNoNew:  a.ReplyEvenIfNoNew,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func (r antRow) toDomain() domain.Ant {
	return domain.Ant{
		ID:                r.ID,
		OwnerID:           r.OwnerID,
		Name:              r.Name,
		Model:             domain.ModelID(r.Model).OrMock(),
		PersonalityPrompt: r.PersonalityPrompt,
		IntervalSeconds:   r.IntervalSeconds,
		Enabled:           r.Enabled,
		ReplyEvenIfNoNew:  r.ReplyEvenIfNoNew,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func (s *sqliteAnts) FindByID(ctx context.Context, id string) (domain.Ant, error) {
	var row antRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return domain.Ant{}, mapErr(err)
	}
	return row.toDomain(), nil
}

func (s *sqliteAnts) ListByOwner(ctx context.Context, ownerID string) ([]domain.Ant, error) {
	var rows []antRow
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Ant, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *sqliteAnts) ListAll(ctx context.Context) ([]domain.Ant, error) {
	var rows []antRow
	if err := s.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Ant, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *sqliteAnts) Create(ctx context.Context, ant domain.Ant) error {
	row := toAntRow(ant)
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *sqliteAnts) Update(ctx context.Context, ant domain.Ant) error {
	row := toAntRow(ant)
	res := s.db.WithContext(ctx).Model(&antRow{}).Where("id = ?", ant.ID).Updates(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteAnts) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&antRow{}, "id = ?", id).Error
}

type sqliteAssignments struct {
	db *gorm.DB
}

func toAssignmentRow(a domain.AntRoomAssignment) assignmentRow {
	return assignmentRow{
		AntID:             a.AntID,
		RoomID:            a.RoomID,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
		LastSeenMessageID: a.LastSeenMessageID,
		LastRunAt:         a.LastRunAt,
		RoleID:            a.RoleID,
		RoleName:          a.RoleName,
		RollingSummary:    a.RollingSummary,
		SummaryMsgCounter: a.SummaryMsgCounter,
		ThoughtJSON:       a.ThoughtJSON,
	}
}

func (r assignmentRow) toDomain() domain.AntRoomAssignment {
	return domain.AntRoomAssignment{
		AntID:             r.AntID,
		RoomID:            r.RoomID,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		LastSeenMessageID: r.LastSeenMessageID,
		LastRunAt:         r.LastRunAt,
		RoleID:            r.RoleID,
		RoleName:          r.RoleName,
		RollingSummary:    r.RollingSummary,
		SummaryMsgCounter: r.SummaryMsgCounter,
		ThoughtJSON:       r.ThoughtJSON,
	}
}

func (s *sqliteAssignments) Find(ctx context.Context, antID, roomID string) (domain.AntRoomAssignment, error) {
	var row assignmentRow
	err := s.db.WithContext(ctx).First(&row, "ant_id = ? AND room_id = ?", antID, roomID).Error
	if err != nil {
		return domain.AntRoomAssignment{}, mapErr(err)
	}
	return row.toDomain(), nil
}

func (s *sqliteAssignments) ListByAnt(ctx context.Context, antID string) ([]domain.AntRoomAssignment, error) {
	var rows []assignmentRow
	if err := s.db.WithContext(ctx).Where("ant_id = ?", antID).Order("room_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AntRoomAssignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *sqliteAssignments) ListByRoom(ctx context.Context, roomID string) ([]domain.AntRoomAssignment, error) {
	var rows []assignmentRow
	if err := s.db.WithContext(ctx).Where("room_id = ?", roomID).Order("ant_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AntRoomAssignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *sqliteAssignments) Assign(ctx context.Context, assignment domain.AntRoomAssignment) error {
	row := toAssignmentRow(assignment)
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *sqliteAssignments) Unassign(ctx context.Context, antID, roomID string) error {
	return s.db.WithContext(ctx).Delete(&assignmentRow{}, "ant_id = ? AND room_id = ?", antID, roomID).Error
}

func (s *sqliteAssignments) Update(ctx context.Context, assignment domain.AntRoomAssignment) error {
	row := toAssignmentRow(assignment)
	res := s.db.WithContext(ctx).
		Model(&assignmentRow{}).
		Where("ant_id = ? AND room_id = ?", assignment.AntID, assignment.RoomID).
		Select("*").
		Updates(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type sqliteRuns struct {
	db *gorm.DB
}

func toRunRow(r domain.AntRun) runRow {
	return runRow{
		ID:         r.ID,
		AntID:      r.AntID,
		OwnerID:    r.OwnerID,
		RoomID:     r.RoomID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Status:     string(r.Status),
		Notes:      r.Notes,
		Error:      r.Error,
	}
}

func (r runRow) toDomain() domain.AntRun {
	return domain.AntRun{
		ID:         r.ID,
		AntID:      r.AntID,
		OwnerID:    r.OwnerID,
		RoomID:     r.RoomID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Status:     domain.RunStatus(r.Status),
		Notes:      r.Notes,
		Error:      r.Error,
	}
}

func (s *sqliteRuns) Create(ctx context.Context, run domain.AntRun) error {
	row := toRunRow(run)
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *sqliteRuns) Update(ctx context.Context, run domain.AntRun) error {
	row := toRunRow(run)
	res := s.db.WithContext(ctx).Model(&runRow{}).Where("id = ?", run.ID).Select("*").Updates(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteRuns) ListByAnt(ctx context.Context, antID string, limit int) ([]domain.AntRun, error) {
	q := s.db.WithContext(ctx).Where("ant_id = ?", antID).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []runRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AntRun, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *sqliteRuns) DeleteByAnt(ctx context.Context, antID string) error {
	return s.db.WithContext(ctx).Delete(&runRow{}, "ant_id = ?", antID).Error
}

type sqliteMessages struct {
	db *gorm.DB
}

func (s *sqliteMessages) Create(ctx context.Context, msg domain.Message) error {
	row := messageRow{
		ID:         msg.ID,
		RoomID:     msg.RoomID,
		AuthorType: string(msg.AuthorType),
		AuthorID:   msg.AuthorID,
		AuthorName: msg.AuthorName,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *sqliteMessages) ListByRoom(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	q := s.db.WithContext(ctx).Where("room_id = ?", roomID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []messageRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Message{
			ID:         r.ID,
			RoomID:     r.RoomID,
			AuthorType: domain.AuthorType(r.AuthorType),
			AuthorID:   r.AuthorID,
			AuthorName: r.AuthorName,
			Content:    r.Content,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out, nil
}

type sqliteRooms struct {
	db *gorm.DB
}

func (s *sqliteRooms) FindByID(ctx context.Context, id string) (domain.Room, error) {
	var row roomRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return domain.Room{}, mapErr(err)
	}
	return domain.Room{ID: row.ID, Name: row.Name, Scenario: row.Scenario, CreatedAt: row.CreatedAt}, nil
}

func (s *sqliteRooms) Create(ctx context.Context, room domain.Room) error {
	row := roomRow{ID: room.ID, Name: room.Name, Scenario: room.Scenario, CreatedAt: room.CreatedAt}
	return s.db.WithContext(ctx).Create(&row).Error
}

type sqliteRoles struct {
	db *gorm.DB
}

func (s *sqliteRoles) Find(ctx context.Context, roomID, roleID string) (domain.RoomRole, error) {
	var row roleRow
	if err := s.db.WithContext(ctx).First(&row, "room_id = ? AND role_id = ?", roomID, roleID).Error; err != nil {
		return domain.RoomRole{}, mapErr(err)
	}
	return domain.RoomRole{RoomID: row.RoomID, RoleID: row.RoleID, Name: row.Name, Prompt: row.Prompt}, nil
}

func (s *sqliteRoles) Create(ctx context.Context, role domain.RoomRole) error {
	row := roleRow{RoomID: role.RoomID, RoleID: role.RoleID, Name: role.Name, Prompt: role.Prompt}
	return s.db.WithContext(ctx).Save(&row).Error
}
