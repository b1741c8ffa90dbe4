package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/mihrab-app/mihrab/internal/model"
)

type pgStore struct {
	db *sqlx.DB
}

var _ Store = (*pgStore)(nil)

// Open connects to PostgreSQL with bounded retries and returns a Store backed
// by it.
func Open(databaseURL string) (Store, error) {
	const maxRetries = 10
	const retryInterval = 2 * time.Second

	var db *sqlx.DB
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err = sqlx.Connect("postgres", databaseURL)
		if err == nil {
			log.Info().Msg("connected to database")
			return &pgStore{db: db}, nil
		}
		log.Error().Err(err).
			Int("attempt", attempt).
			Msgf("failed to connect to database, retrying in %s", retryInterval)
		time.Sleep(retryInterval)
	}
	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", maxRetries, err)
}

// RunMigrations finds all "*.up.sql" files in migrationsPath (sorted by name)
// and executes their SQL contents in order.
func (s *pgStore) RunMigrations(migrationsPath string) error {
	pattern := filepath.Join(migrationsPath, "*.up.sql")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("failed to glob migrations: %w", err)
	}
	if len(files) == 0 {
		return nil
	}
	sort.Strings(files)

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("could not read migration %q: %w", file, err)
		}
		stmt := string(sqlBytes)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("error executing migration %q: %w", file, err)
		}
	}
	return nil
}

// Migrator is implemented by stores that run SQL migrations.
type Migrator interface {
	RunMigrations(migrationsPath string) error
}

func (s *pgStore) GetBlob(key string) ([]byte, error) {
	var value []byte
	err := s.db.Get(&value, `SELECT value FROM kv_blobs WHERE key = $1;`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("GetBlob failed")
		return nil, err
	}
	return value, nil
}

func (s *pgStore) SetBlob(key string, value []byte) error {
	_, err := s.db.Exec(`
	INSERT INTO kv_blobs (key, value, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now();`,
		key, value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("SetBlob failed")
	}
	return err
}

func (s *pgStore) DeleteBlob(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv_blobs WHERE key = $1;`, key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("DeleteBlob failed")
	}
	return err
}

func (s *pgStore) CreateUser(email, hashedPassword string, name *string) (int, error) {
	var id int
	const q = `
	INSERT INTO users (email, hashed_password, name, created_at, updated_at)
	VALUES ($1, $2, $3, now(), now())
	RETURNING id;`
	if err := s.db.Get(&id, q, email, hashedPassword, name); err != nil {
		log.Error().Err(err).Str("email", email).Msg("CreateUser failed")
		return 0, err
	}
	return id, nil
}

func (s *pgStore) GetUserByEmail(email string) (*model.User, error) {
	var u model.User
	err := s.db.Get(&u, `
	SELECT id, email, hashed_password, name, created_at, updated_at
	  FROM users WHERE email = $1;`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("GetUserByEmail failed")
		return nil, err
	}
	return &u, nil
}

func (s *pgStore) GetUserByID(id int) (*model.User, error) {
	var u model.User
	err := s.db.Get(&u, `
	SELECT id, email, hashed_password, name, created_at, updated_at
	  FROM users WHERE id = $1;`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Int("user_id", id).Msg("GetUserByID failed")
		return nil, err
	}
	return &u, nil
}

func (s *pgStore) UpdateUserProfile(id int, email string, name *string) error {
	_, err := s.db.Exec(`
	UPDATE users SET email = $2, name = $3, updated_at = now() WHERE id = $1;`,
		id, email, name)
	if err != nil {
		log.Error().Err(err).Int("user_id", id).Msg("UpdateUserProfile failed")
	}
	return err
}
