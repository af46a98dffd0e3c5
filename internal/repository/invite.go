package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/blomstudio/blom/internal/model"
)

var (
	ErrInviteNotFound = errors.New("invite not found")
	ErrInviteExpired  = errors.New("invite has expired")
	ErrInviteRedeemed = errors.New("invite has already been redeemed")
)

type InviteRepository interface {
	Create(ctx context.Context, invite *model.Invite) error
	ByToken(ctx context.Context, token string) (*model.Invite, error)
	ListByCourse(ctx context.Context, courseID string) ([]*model.Invite, error)
	// Revoke deletes an unredeemed invite. Redeemed invites are immutable and
	// cannot be revoked.
	Revoke(ctx context.Context, id string) error
	// Claim atomically redeems the invite and creates the enrollment in one
	// transaction. It is the single authority for claim outcomes: a losing
	// racer deterministically gets ErrInviteRedeemed, never a second success.
	Claim(ctx context.Context, token, userID string) (*model.Invite, *model.Course, error)
}

type inviteRepository struct {
	db *sqlx.DB
}

func NewInviteRepository(db *sqlx.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) Create(ctx context.Context, invite *model.Invite) error {
	if invite.ID == "" {
		invite.ID = uuid.New().String()
	}
	if invite.CreatedAt.IsZero() {
		invite.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO course_invites (id, course_id, email, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, invite.ID, invite.CourseID, invite.Email, invite.Token, invite.ExpiresAt, invite.CreatedAt)

	return err
}

func (r *inviteRepository) ByToken(ctx context.Context, token string) (*model.Invite, error) {
	var invite model.Invite
	err := r.db.GetContext(ctx, &invite, `SELECT * FROM course_invites WHERE token = $1`, token)
	if err == sql.ErrNoRows {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *inviteRepository) ListByCourse(ctx context.Context, courseID string) ([]*model.Invite, error) {
	invites := []*model.Invite{}
	err := r.db.SelectContext(ctx, &invites, `
		SELECT * FROM course_invites WHERE course_id = $1 ORDER BY created_at DESC
	`, courseID)
	if err != nil {
		return nil, err
	}
	return invites, nil
}

func (r *inviteRepository) Revoke(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM course_invites WHERE id = $1 AND redeemed_at IS NULL
	`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInviteNotFound
	}

	return nil
}

func (r *inviteRepository) Claim(ctx context.Context, token, userID string) (*model.Invite, *model.Course, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		rbErr := tx.Rollback()
		if rbErr != nil && rbErr != sql.ErrTxDone {
			slog.Warn("failed to rollback invite claim", "error", rbErr)
		}
	}()

	now := time.Now()

	// Atomic UPDATE with RETURNING, guarded on redeemed_at IS NULL. Only one
	// claimant can win; everyone else falls through to classification below.
	var invite model.Invite
	err = tx.GetContext(ctx, &invite, `
		UPDATE course_invites
		SET redeemed_at = $1, redeemed_by = $2
		WHERE token = $3
		AND redeemed_at IS NULL
		AND expires_at > $4
		RETURNING *
	`, now, userID, token, now)

	if err == sql.ErrNoRows {
		return nil, nil, r.classifyFailedClaim(ctx, tx, token)
	}
	if err != nil {
		return nil, nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO enrollments (id, user_id, course_id, enrolled_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, course_id) DO NOTHING
	`, uuid.New().String(), userID, invite.CourseID, now)
	if err != nil {
		return nil, nil, err
	}

	var course model.Course
	err = tx.GetContext(ctx, &course, `SELECT * FROM courses WHERE id = $1`, invite.CourseID)
	if err != nil {
		return nil, nil, err
	}

	err = tx.Commit()
	if err != nil {
		return nil, nil, err
	}

	return &invite, &course, nil
}

// classifyFailedClaim distinguishes why the guarded update matched no row:
// unknown token, already redeemed, or expired.
func (r *inviteRepository) classifyFailedClaim(ctx context.Context, tx *sqlx.Tx, token string) error {
	var invite model.Invite
	err := tx.GetContext(ctx, &invite, `SELECT * FROM course_invites WHERE token = $1`, token)
	if err == sql.ErrNoRows {
		return ErrInviteNotFound
	}
	if err != nil {
		return err
	}
	if invite.IsRedeemed() {
		return ErrInviteRedeemed
	}
	return ErrInviteExpired
}
