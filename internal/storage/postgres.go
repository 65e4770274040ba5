package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresStorage keeps asset records in the uploads table.
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage connects, pings and makes sure the schema exists.
func NewPostgresStorage(ctx context.Context, connectionString string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	p := &PostgresStorage{db: db}
	if err := p.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("[DB] Connected to PostgreSQL successfully")
	return p, nil
}

func (p *PostgresStorage) createTables(ctx context.Context) error {
	query := `
    CREATE TABLE IF NOT EXISTS uploads (
        id UUID PRIMARY KEY,
        upload_path VARCHAR(255) NOT NULL,
        ext VARCHAR(32) NOT NULL,
        disk VARCHAR(64) NOT NULL,
        mime_type VARCHAR(255),
        collection VARCHAR(255),
        size NUMERIC(14, 2),
        tags VARCHAR(255),
        uploadable_id VARCHAR(255),
        uploadable_type VARCHAR(255),
        created_at TIMESTAMPTZ DEFAULT NOW(),
        updated_at TIMESTAMPTZ DEFAULT NOW()
    );
    `
	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return err
	}

	indexQuery := `
    CREATE INDEX IF NOT EXISTS uploadable_index ON uploads(uploadable_id, uploadable_type);
    CREATE INDEX IF NOT EXISTS idx_uploads_tags ON uploads(tags);
    `
	_, err := p.db.ExecContext(ctx, indexQuery)
	return err
}

func (p *PostgresStorage) Create(ctx context.Context, asset models.Asset) error {
	query := `
    INSERT INTO uploads (id, upload_path, ext, disk, mime_type, collection, size, tags, uploadable_id, uploadable_type, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `
	_, err := p.db.ExecContext(ctx, query,
		asset.ID,
		asset.UploadPath,
		asset.Extension,
		asset.Disk,
		nullString(asset.MimeType),
		nullString(asset.Collection),
		asset.Size,
		nullString(asset.Tags),
		nullString(asset.Owner.ID),
		nullString(string(asset.Owner.Kind)),
		asset.CreatedAt,
		asset.UpdatedAt,
	)
	return err
}

const selectColumns = `id, upload_path, ext, disk, mime_type, collection, size, tags, uploadable_id, uploadable_type, created_at, updated_at`

// Get reports ErrNotFound for ids that are not UUIDs; the id column would reject them.
func (p *PostgresStorage) Get(ctx context.Context, id string) (models.Asset, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Asset{}, ErrNotFound
	}
	row := p.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM uploads WHERE id = $1`, id)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Asset{}, ErrNotFound
	}
	return asset, err
}

func (p *PostgresStorage) ListByOwner(ctx context.Context, owner models.OwnerRef) ([]models.Asset, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+selectColumns+`
    FROM uploads WHERE uploadable_id = $1 AND uploadable_type = $2 ORDER BY created_at, id`,
		owner.ID, string(owner.Kind))
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		if cerr := rows.Close(); cerr != nil {
			log.Printf("[DB] Error closing rows: %v", cerr)
		}
	}(rows)

	var assets []models.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func (p *PostgresStorage) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	result, err := p.db.ExecContext(ctx, `DELETE FROM uploads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresStorage) Close() error {
	return p.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(s scanner) (models.Asset, error) {
	var (
		asset                                      models.Asset
		mime, collection, tags, ownerID, ownerType sql.NullString
		size                                       sql.NullFloat64
	)
	err := s.Scan(
		&asset.ID,
		&asset.UploadPath,
		&asset.Extension,
		&asset.Disk,
		&mime,
		&collection,
		&size,
		&tags,
		&ownerID,
		&ownerType,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	)
	if err != nil {
		return models.Asset{}, err
	}
	asset.MimeType = mime.String
	asset.Collection = collection.String
	asset.Size = size.Float64
	asset.Tags = tags.String
	asset.Owner = models.OwnerRef{Kind: models.OwnerKind(ownerType.String), ID: ownerID.String}
	return asset, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
