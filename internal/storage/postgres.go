package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/pfrederiksen/rota-da-festa/internal/event"
)

const eventsTable = "eventos"

// eventRow mirrors one eventos row
type eventRow struct {
	Name         string         `db:"nome"`
	Type         string         `db:"tipo"`
	Date         time.Time      `db:"data"`
	Time         string         `db:"hora"`
	VenueName    string         `db:"local"`
	Latitude     float64        `db:"latitude"`
	Longitude    float64        `db:"longitude"`
	Price        string         `db:"preco"`
	Description  string         `db:"descricao"`
	MapsURL      string         `db:"url_maps"`
	Status       string         `db:"status"`
	StatusNote   sql.NullString `db:"nota_estado"`
	Category     sql.NullString `db:"categoria"`
	AgeBracket   sql.NullString `db:"escalao"`
	HomeTeam     sql.NullString `db:"equipa_casa"`
	AwayTeam     sql.NullString `db:"equipa_fora"`
	MatchURL     sql.NullString `db:"url_jogo"`
	HomeTeamURL  sql.NullString `db:"url_equipa_casa"`
	AwayTeamURL  sql.NullString `db:"url_equipa_fora"`
	StandingsURL sql.NullString `db:"url_classificacao"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toRow(rec event.Record) (eventRow, error) {
	date, err := time.Parse(event.DateLayout, rec.Date)
	if err != nil {
		return eventRow{}, errors.Wrapf(err, "record %q has invalid date", rec.Name)
	}
	row := eventRow{
		Name:        rec.Name,
		Type:        rec.Type,
		Date:        date,
		Time:        rec.Time,
		VenueName:   rec.VenueName,
		Latitude:    rec.Latitude,
		Longitude:   rec.Longitude,
		Price:       rec.Price,
		Description: rec.Description,
		MapsURL:     rec.MapsURL,
		Status:      rec.Status,
		StatusNote:  nullString(rec.StatusNote),
	}
	if f := rec.Football; f != nil {
		row.Category = nullString(f.Category)
		row.AgeBracket = nullString(string(f.AgeBracket))
		row.HomeTeam = nullString(f.HomeTeam)
		row.AwayTeam = nullString(f.AwayTeam)
		row.MatchURL = nullString(f.MatchURL)
		row.HomeTeamURL = nullString(f.HomeTeamURL)
		row.AwayTeamURL = nullString(f.AwayTeamURL)
		row.StandingsURL = nullString(f.StandingsURL)
	}
	return row, nil
}

func (row eventRow) record() event.Record {
	rec := event.Record{
		Name:        row.Name,
		Type:        row.Type,
		Date:        row.Date.Format(event.DateLayout),
		Time:        row.Time,
		VenueName:   row.VenueName,
		Latitude:    row.Latitude,
		Longitude:   row.Longitude,
		Price:       row.Price,
		Description: row.Description,
		MapsURL:     row.MapsURL,
		Status:      row.Status,
		StatusNote:  row.StatusNote.String,
	}
	if rec.Type == event.TypeFootball || row.MatchURL.Valid {
		rec.Football = &event.Football{
			Category:     row.Category.String,
			AgeBracket:   event.AgeBracket(row.AgeBracket.String),
			HomeTeam:     row.HomeTeam.String,
			AwayTeam:     row.AwayTeam.String,
			MatchURL:     row.MatchURL.String,
			HomeTeamURL:  row.HomeTeamURL.String,
			AwayTeamURL:  row.AwayTeamURL.String,
			StandingsURL: row.StandingsURL.String,
		}
	}
	return rec
}

const upsertEventQuery = `
INSERT INTO eventos (
    nome, tipo, data, hora, "local", latitude, longitude, preco, descricao,
    url_maps, status, nota_estado, categoria, escalao, equipa_casa, equipa_fora,
    url_jogo, url_equipa_casa, url_equipa_fora, url_classificacao
) VALUES (
    :nome, :tipo, :data, :hora, :local, :latitude, :longitude, :preco, :descricao,
    :url_maps, :status, :nota_estado, :categoria, :escalao, :equipa_casa, :equipa_fora,
    :url_jogo, :url_equipa_casa, :url_equipa_fora, :url_classificacao
)
ON CONFLICT (nome, data) DO UPDATE SET
    tipo = EXCLUDED.tipo,
    hora = EXCLUDED.hora,
    "local" = EXCLUDED."local",
    latitude = EXCLUDED.latitude,
    longitude = EXCLUDED.longitude,
    preco = EXCLUDED.preco,
    descricao = EXCLUDED.descricao,
    url_maps = EXCLUDED.url_maps,
    status = EXCLUDED.status,
    nota_estado = EXCLUDED.nota_estado,
    categoria = EXCLUDED.categoria,
    escalao = EXCLUDED.escalao,
    equipa_casa = EXCLUDED.equipa_casa,
    equipa_fora = EXCLUDED.equipa_fora,
    url_jogo = EXCLUDED.url_jogo,
    url_equipa_casa = EXCLUDED.url_equipa_casa,
    url_equipa_fora = EXCLUDED.url_equipa_fora,
    url_classificacao = EXCLUDED.url_classificacao,
    updated_at = NOW()`

const selectEventColumns = `nome, tipo, data, hora, "local", latitude, longitude, preco,
    descricao, url_maps, status, nota_estado, categoria, escalao, equipa_casa,
    equipa_fora, url_jogo, url_equipa_casa, url_equipa_fora, url_classificacao`

// uniqueKeyQuery counts unique indexes on eventos covering exactly (nome, data)
const uniqueKeyQuery = `
SELECT COUNT(*)
FROM pg_index i
JOIN pg_class t ON t.oid = i.indrelid
WHERE t.relname = $1
  AND i.indisunique
  AND (
    SELECT array_agg(a.attname::text ORDER BY a.attname::text)
    FROM pg_attribute a
    WHERE a.attrelid = t.oid AND a.attnum = ANY(i.indkey)
  ) = ARRAY['data', 'nome']::text[]`

// PostgresStore stores records in the eventos table
type PostgresStore struct {
	db *sqlx.DB
}

// OpenPostgres connects and checks that upserts can rely on the unique key
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to postgres")
	}
	s := NewPostgresStore(db)
	if err := s.VerifyUniqueKey(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an open connection
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// VerifyUniqueKey returns ErrUniqueKeyMissing unless (nome, data) is unique
func (s *PostgresStore) VerifyUniqueKey(ctx context.Context) error {
	var n int
	if err := s.db.GetContext(ctx, &n, uniqueKeyQuery, eventsTable); err != nil {
		return errors.Wrap(err, "inspecting eventos indexes")
	}
	if n == 0 {
		return errors.WithHint(ErrUniqueKeyMissing, "run `rota-scraper migrate` first")
	}
	return nil
}

// Upsert implements Store
func (s *PostgresStore) Upsert(ctx context.Context, rec event.Record) error {
	row, err := toRow(rec)
	if err != nil {
		return err
	}
	if _, err := s.db.NamedExecContext(ctx, upsertEventQuery, row); err != nil {
		return errors.Wrapf(err, "upserting %q on %s", rec.Name, rec.Date)
	}
	return nil
}

// Select implements Store
func (s *PostgresStore) Select(ctx context.Context, q Query) ([]event.Record, error) {
	var (
		where []string
		args  []any
	)
	if q.FromDate != "" {
		where = append(where, "data >= ?")
		args = append(args, q.FromDate)
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}
	if q.Type != "" {
		where = append(where, "tipo = ?")
		args = append(args, q.Type)
	}

	query := "SELECT " + selectEventColumns + " FROM eventos"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY data, hora, nome"

	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "selecting events")
	}

	out := make([]event.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}

// DeleteBefore implements Store
func (s *PostgresStore) DeleteBefore(ctx context.Context, date string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM eventos WHERE data < $1`, date)
	if err != nil {
		return 0, errors.Wrap(err, "deleting past events")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting deleted events")
	}
	return n, nil
}

// Close implements Store
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
