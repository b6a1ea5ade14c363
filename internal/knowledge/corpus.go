// Package knowledge holds the static exemplar corpus and the similarity-based
// retriever that supplies in-context guidance for formulation prompts.
package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"optimind/internal/types"
)

// Exemplar pairs a problem description with its known-good model.
type Exemplar struct {
	ID      string          `json:"id"`
	Problem string          `json:"problem"`
	Spec    types.ModelSpec `json:"spec"`
}

// LoadCorpus loads exemplars from the configured source. Resolution order
// mirrors the rest of the config layer: an explicit Postgres DSN wins, then an
// S3 endpoint, then the JSON file path. The corpus is read once at startup and
// never mutated afterwards.
func LoadCorpus(ctx context.Context, filePath string) ([]Exemplar, error) {
	if dsn := strings.TrimSpace(os.Getenv("KNOWLEDGE_PG_DSN")); dsn != "" {
		return loadPostgres(ctx, dsn)
	}
	if endpoint := strings.TrimSpace(os.Getenv("KNOWLEDGE_S3_ENDPOINT")); endpoint != "" {
		return loadS3(ctx, endpoint)
	}
	return LoadCorpusFile(filePath)
}

// LoadCorpusFile reads a JSON array of exemplars from disk.
func LoadCorpusFile(path string) ([]Exemplar, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	return decodeCorpus(b)
}

func decodeCorpus(b []byte) ([]Exemplar, error) {
	var out []Exemplar
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	for i, ex := range out {
		if strings.TrimSpace(ex.ID) == "" {
			return nil, fmt.Errorf("corpus entry %d: id is required", i)
		}
		if strings.TrimSpace(ex.Problem) == "" {
			return nil, fmt.Errorf("corpus entry %s: problem text is required", ex.ID)
		}
	}
	return out, nil
}

// loadPostgres reads exemplars from the knowledge_exemplars table
// (id text, problem text, spec jsonb).
func loadPostgres(ctx context.Context, dsn string) ([]Exemplar, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open knowledge db: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping knowledge db: %w", err)
	}
	rows, err := db.QueryContext(ctx, `SELECT id, problem, spec FROM knowledge_exemplars ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query exemplars: %w", err)
	}
	defer rows.Close()
	var out []Exemplar
	for rows.Next() {
		var ex Exemplar
		var specJSON []byte
		if err := rows.Scan(&ex.ID, &ex.Problem, &specJSON); err != nil {
			return nil, fmt.Errorf("scan exemplar: %w", err)
		}
		if err := json.Unmarshal(specJSON, &ex.Spec); err != nil {
			return nil, fmt.Errorf("exemplar %s: decode spec: %w", ex.ID, err)
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// loadS3 reads the corpus object from a minio/S3 bucket. Keys mirror the
// artifact-store convention: KNOWLEDGE_S3_BUCKET / KNOWLEDGE_S3_OBJECT.
func loadS3(ctx context.Context, endpoint string) ([]Exemplar, error) {
	access := strings.TrimSpace(os.Getenv("KNOWLEDGE_S3_ACCESS_KEY"))
	secret := strings.TrimSpace(os.Getenv("KNOWLEDGE_S3_SECRET_KEY"))
	bucket := firstNonEmpty(os.Getenv("KNOWLEDGE_S3_BUCKET"), "optimind-knowledge")
	object := firstNonEmpty(os.Getenv("KNOWLEDGE_S3_OBJECT"), "corpus.json")
	useSSL := !strings.EqualFold(strings.TrimSpace(os.Getenv("KNOWLEDGE_S3_USE_SSL")), "false")
	if access == "" || secret == "" {
		return nil, fmt.Errorf("knowledge s3: access key and secret key are required")
	}
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init knowledge s3 client: %w", err)
	}
	obj, err := cli.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get corpus object %s/%s: %w", bucket, object, err)
	}
	defer obj.Close()
	b, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read corpus object: %w", err)
	}
	return decodeCorpus(b)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
