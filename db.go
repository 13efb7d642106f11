package framestream

import (
	"bytes"
	"context"
	"crypto/sha1"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bodgit/framestream/codec"
	"github.com/hashicorp/go-hclog"
	_ "github.com/mattn/go-sqlite3"
)

// DB is a sqlite database of compressed chunks. It implements Source.
type DB struct {
	db     *sql.DB
	logger hclog.Logger
}

// NewDB opens or creates the database in file.
func NewDB(file string, logger hclog.Logger) (*DB, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS chunk (idx INTEGER PRIMARY KEY NOT NULL, codec TEXT NOT NULL, sha1 TEXT NOT NULL, payload BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.db.Close()
}

// Count returns the number of chunks in the database.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM chunk").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

var errChecksum = errors.New("framestream: chunk checksum mismatch")

func checksum(b []byte) string {
	return fmt.Sprintf("%X", sha1.Sum(b))
}

// Add stores the compressed payload of a chunk, replacing any existing
// payload with the same index.
func (db *DB) Add(index int, c codec.Codec, payload []byte) error {
	if _, err := db.db.Exec("INSERT OR REPLACE INTO chunk (idx, codec, sha1, payload) VALUES (?, ?, ?, ?)", index, c.String(), checksum(payload), payload); err != nil {
		return err
	}
	return nil
}

// ImportDir adds every chunk file in dir whose name starts with prefix,
// deleting any chunks previously stored.
func (db *DB) ImportDir(dir, prefix string) (int, error) {
	if info, err := os.Stat(filepath.Join(dir, mediaDir)); err == nil && info.IsDir() {
		dir = filepath.Join(dir, mediaDir)
	}

	files, err := filepath.Glob(filepath.Join(dir, prefix+"*"))
	if err != nil {
		return 0, err
	}

	if _, err = db.db.Exec("DELETE FROM chunk"); err != nil {
		return 0, err
	}

	n := 0
	for _, file := range files {
		name := filepath.Base(file)
		ext := filepath.Ext(name)

		c, err := codec.ForSuffix(ext)
		if err != nil {
			db.logger.Warn("skipping file", "file", file, "error", err)
			continue
		}

		index, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext))
		if err != nil {
			db.logger.Warn("skipping file", "file", file, "error", err)
			continue
		}

		b, err := ioutil.ReadFile(file)
		if err != nil {
			return n, err
		}

		if err := db.Add(index, c, b); err != nil {
			return n, err
		}
		db.logger.Debug("imported chunk", "chunk", index, "codec", c, "bytes", len(b))
		n++
	}

	return n, nil
}

// Fetch implements Source.
func (db *DB) Fetch(ctx context.Context, index int) (io.ReadCloser, codec.Codec, error) {
	var name, sha string
	var payload []byte
	switch err := db.db.QueryRowContext(ctx, "SELECT codec, sha1, payload FROM chunk WHERE idx = ?", index).Scan(&name, &sha, &payload); err {
	case sql.ErrNoRows:
		return nil, 0, ErrNoChunk
	case nil:
		c, err := codec.ParseCodec(name)
		if err != nil {
			return nil, 0, err
		}
		if checksum(payload) != sha {
			return nil, c, errChecksum
		}
		return ioutil.NopCloser(bytes.NewReader(payload)), c, nil
	default:
		return nil, 0, err
	}
}
