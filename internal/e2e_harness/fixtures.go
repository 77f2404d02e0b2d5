package e2e_harness

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/lib/pq"
	"github.com/lychee-technology/chartpreset"
	"github.com/lychee-technology/chartpreset/factory"
	"github.com/lychee-technology/chartpreset/internal"
)

type car struct {
	name   string
	mpg    float64
	origin string
	year   string
}

var cars = []car{
	{"chevrolet chevelle", 18, "USA", "1970-01-01"},
	{"toyota corona", 24, "Japan", "1970-01-01"},
	{"volkswagen 1131", 26, "Europe", "1970-01-01"},
	{"ford pinto", 25, "USA", "1971-01-01"},
	{"datsun pl510", 27, "Japan", "1971-01-01"},
	{"peugeot 504", 19, "Europe", "1972-01-01"},
}

// SeedPostgres creates a cars table whose origin column is an enum and
// analyzes it so planner statistics exist.
func SeedPostgres(ctx context.Context, db *sql.DB, table string) error {
	ident := pq.QuoteIdentifier(table)
	stmts := []string{
		`DO $$ BEGIN
  CREATE TYPE car_origin AS ENUM ('USA', 'Europe', 'Japan');
EXCEPTION WHEN duplicate_object THEN NULL;
END $$;`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  name TEXT,
  mpg DOUBLE PRECISION,
  origin car_origin,
  year DATE
);`, ident),
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	for _, c := range cars {
		if _, err := db.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (name, mpg, origin, year) VALUES ($1, $2, $3, $4)`, ident),
			c.name, c.mpg, c.origin, c.year); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	if _, err := db.ExecContext(ctx, "ANALYZE "+ident); err != nil {
		return fmt.Errorf("analyze %s: %w", table, err)
	}
	return nil
}

// WriteCarsParquet writes the cars fixture as CSV and converts it to Parquet
// through DuckDB. It returns the local Parquet path.
func WriteCarsParquet(ctx context.Context, duck *internal.DuckDBClient, outDir string) (string, error) {
	if duck == nil || duck.DB == nil {
		return "", fmt.Errorf("duckdb client is nil")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}

	var csv strings.Builder
	csv.WriteString("name,mpg,origin,year\n")
	for _, c := range cars {
		fmt.Fprintf(&csv, "%s,%g,%s,%s\n", c.name, c.mpg, c.origin, c.year)
	}
	csvPath := filepath.Join(outDir, "cars.csv")
	if err := os.WriteFile(csvPath, []byte(csv.String()), 0o644); err != nil {
		return "", err
	}

	parquetPath := filepath.Join(outDir, "cars.parquet")
	ctxExec, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	query := fmt.Sprintf("COPY (SELECT * FROM read_csv_auto('%s')) TO '%s' (FORMAT PARQUET);",
		strings.ReplaceAll(csvPath, "'", "''"), strings.ReplaceAll(parquetPath, "'", "''"))
	if _, err := duck.DB.ExecContext(ctxExec, query); err != nil {
		return "", fmt.Errorf("export parquet: %w", err)
	}
	return parquetPath, nil
}

// EnsureBucket creates bucket unless it already exists.
func EnsureBucket(ctx context.Context, client *s3.Client, bucket string) error {
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err == nil {
		return nil
	}
	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			code := apiErr.ErrorCode()
			if code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
				return nil
			}
		}
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// UploadObject stores data under bucket/key, creating the bucket if needed.
func UploadObject(ctx context.Context, cfg chartpreset.S3Config, bucket, key string, data []byte) error {
	client, err := factory.NewS3Client(ctx, cfg)
	if err != nil {
		return err
	}
	if err := EnsureBucket(ctx, client, bucket); err != nil {
		return err
	}
	uploader := manager.NewUploader(client)
	if _, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}); err != nil {
		return fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return nil
}

// UploadFile stores a local file under bucket/key.
func UploadFile(ctx context.Context, cfg chartpreset.S3Config, bucket, key, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", filePath, err)
	}
	return UploadObject(ctx, cfg, bucket, key, data)
}
