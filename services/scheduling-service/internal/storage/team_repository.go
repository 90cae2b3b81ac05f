package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/teambook/libs/db"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/model"
)

var ErrNotFound = errors.New("not found")

const memberColumns = `id::text, name, role, expertise, avatar, bio, email, created_at, updated_at`

type TeamRepository struct {
	pool *db.Pool
}

func NewTeamRepository(pool *db.Pool) *TeamRepository {
	return &TeamRepository{pool: pool}
}

// Search matches q as a case-insensitive substring of the member name.
func (r *TeamRepository) Search(ctx context.Context, q string, limit int) ([]model.TeamMember, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+memberColumns+`
		FROM team_members
		WHERE name ILIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY name
		LIMIT $2
	`, escapeLike(q), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []model.TeamMember{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (model.TeamMember, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+memberColumns+`
		FROM team_members
		WHERE id = $1
	`, id)
	m, err := scanMember(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.TeamMember{}, ErrNotFound
	}
	return m, err
}

func scanMember(row pgx.Row) (model.TeamMember, error) {
	var m model.TeamMember
	err := row.Scan(&m.ID, &m.Name, &m.Role, &m.Expertise, &m.Avatar, &m.Bio, &m.Email, &m.CreatedAt, &m.UpdatedAt)
	if m.Expertise == nil {
		m.Expertise = []string{}
	}
	return m, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
