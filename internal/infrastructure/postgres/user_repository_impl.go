package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/profile-hub/internal/domain/entity"
	"github.com/oksasatya/profile-hub/internal/domain/repository"
	"github.com/oksasatya/profile-hub/internal/domain/storeerr"
)

const profileColumns = `id, full_name, email, phone_number, bio, avatar_url, date_of_birth, location, created_at, updated_at`

// UserRepository is the pgx-backed store adapter. All row/column and error
// normalization happens here: snake_case columns map onto the domain entity,
// NULL optional columns come back as "", and every failure leaves as a
// classified *storeerr.Error.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// toNull maps "" to NULL for optional columns on the write path, the inverse
// of the read-path "" fill. Round trip is NULL -> "" -> NULL.
func toNull(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func scanProfile(row pgx.Row) (*entity.UserProfile, error) {
	var u entity.UserProfile
	var phone, bio, avatar, dob, loc *string
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &phone, &bio, &avatar, &dob, &loc, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.PhoneNumber = orEmpty(phone)
	u.Bio = orEmpty(bio)
	u.AvatarURL = orEmpty(avatar)
	u.DateOfBirth = orEmpty(dob)
	u.Location = orEmpty(loc)
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]entity.UserProfile, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM user_profiles`).Scan(&total); err != nil {
		return nil, 0, Classify(err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM user_profiles
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, Classify(err)
	}
	defer rows.Close()

	out, err := collectProfiles(rows)
	if err != nil {
		return nil, 0, Classify(err)
	}
	return out, total, nil
}

func (r *UserRepository) Search(ctx context.Context, q string, offset, limit int) ([]entity.UserProfile, int64, error) {
	pattern := "%" + escapeLike(q) + "%"
	const match = `full_name ILIKE $1 ESCAPE '\'
		OR email ILIKE $1 ESCAPE '\'
		OR location ILIKE $1 ESCAPE '\'
		OR bio ILIKE $1 ESCAPE '\'`

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM user_profiles WHERE `+match, pattern).Scan(&total); err != nil {
		return nil, 0, Classify(err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM user_profiles
		WHERE `+match+`
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, pattern, limit, offset)
	if err != nil {
		return nil, 0, Classify(err)
	}
	defer rows.Close()

	out, err := collectProfiles(rows)
	if err != nil {
		return nil, 0, Classify(err)
	}
	return out, total, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.UserProfile, error) {
	u, err := scanProfile(r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM user_profiles
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, Classify(err)
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, in repository.CreateInput) (*entity.UserProfile, error) {
	u, err := scanProfile(r.pool.QueryRow(ctx, `
		INSERT INTO user_profiles (full_name, email, phone_number, bio, avatar_url, date_of_birth, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+profileColumns+`
	`, in.FullName, in.Email, toNull(in.PhoneNumber), toNull(in.Bio), toNull(in.AvatarURL), toNull(in.DateOfBirth), toNull(in.Location)))
	if err != nil {
		return nil, Classify(err)
	}
	return u, nil
}

// Update writes only the fields present in the input. updated_at advances via
// the table trigger. An empty input degrades to a plain read.
func (r *UserRepository) Update(ctx context.Context, id string, in repository.UpdateInput) (*entity.UserProfile, error) {
	if in.Empty() {
		return r.GetByID(ctx, id)
	}

	set, args := buildUpdateSet(in)
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE user_profiles
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(set, ", "), len(args), profileColumns)

	u, err := scanProfile(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, Classify(err)
	}
	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM user_profiles WHERE id = $1`, id)
	if err != nil {
		return Classify(err)
	}
	if res.RowsAffected() == 0 {
		return storeerr.New(storeerr.KindNotFound, pgx.ErrNoRows)
	}
	return nil
}

// buildUpdateSet renders the SET clause for the fields present in the input.
// Required columns are written as given; optional ones go through toNull so an
// explicit "" clears the column.
func buildUpdateSet(in repository.UpdateInput) ([]string, []any) {
	var (
		set  []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if in.FullName != nil {
		add("full_name", *in.FullName)
	}
	if in.Email != nil {
		add("email", *in.Email)
	}
	if in.PhoneNumber != nil {
		add("phone_number", toNull(*in.PhoneNumber))
	}
	if in.Bio != nil {
		add("bio", toNull(*in.Bio))
	}
	if in.AvatarURL != nil {
		add("avatar_url", toNull(*in.AvatarURL))
	}
	if in.DateOfBirth != nil {
		add("date_of_birth", toNull(*in.DateOfBirth))
	}
	if in.Location != nil {
		add("location", toNull(*in.Location))
	}
	return set, args
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search text so
// the query matches them literally.
func escapeLike(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(q)
}

func collectProfiles(rows pgx.Rows) ([]entity.UserProfile, error) {
	out := make([]entity.UserProfile, 0)
	for rows.Next() {
		u, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
