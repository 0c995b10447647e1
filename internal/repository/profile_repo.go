package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"lifeboard/internal/model"
)

type ProfileRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProfileRepository(db *pgxpool.Pool, logger *zap.Logger) *ProfileRepository {
	return &ProfileRepository{db: db, logger: logger}
}

const profileColumns = `id, email, display_name, first_name, last_name, avatar_url, created_at, updated_at`

func scanProfile(row pgx.Row) (*model.UserProfile, error) {
	var u model.UserProfile
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.FirstName, &u.LastName, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertProfile creates the profile on first sign-in; later calls refresh email and
// fill in names only where the stored value is empty.
func (r *ProfileRepository) UpsertProfile(ctx context.Context, u *model.UserProfile) (*model.UserProfile, error) {
	out, err := scanProfile(r.db.QueryRow(ctx, `
		INSERT INTO user_profiles (id, email, display_name, first_name, last_name, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    display_name = COALESCE(user_profiles.display_name, EXCLUDED.display_name),
		    first_name = COALESCE(user_profiles.first_name, EXCLUDED.first_name),
		    last_name = COALESCE(user_profiles.last_name, EXCLUDED.last_name),
		    avatar_url = COALESCE(EXCLUDED.avatar_url, user_profiles.avatar_url),
		    updated_at = NOW()
		RETURNING `+profileColumns,
		u.ID, u.Email, u.DisplayName, u.FirstName, u.LastName, u.AvatarURL))
	if err != nil {
		r.logger.Error("Failed to upsert profile", zap.String("user_id", u.ID), zap.Error(err))
		return nil, translate(err)
	}
	r.logger.Info("Profile synced", zap.String("user_id", out.ID))
	return out, nil
}

func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	u, err := scanProfile(r.db.QueryRow(ctx, `
		SELECT `+profileColumns+` FROM user_profiles WHERE id = $1
	`, userID))
	return u, translate(err)
}

func (r *ProfileRepository) UpdateProfile(ctx context.Context, u *model.UserProfile) error {
	err := r.db.QueryRow(ctx, `
		UPDATE user_profiles
		SET display_name = $2, first_name = $3, last_name = $4, avatar_url = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, u.ID, u.DisplayName, u.FirstName, u.LastName, u.AvatarURL).Scan(&u.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update profile", zap.String("user_id", u.ID), zap.Error(err))
		return translate(err)
	}
	return nil
}
