package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE authors (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				bio TEXT,
				birth_date DATE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_authors_name ON authors (name COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE genres (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				description TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		// Case-insensitive unique constraint
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_genres_name ON genres (name COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE books (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				title TEXT NOT NULL,
				author_id INTEGER NOT NULL REFERENCES authors (id) ON DELETE CASCADE,
				isbn TEXT,
				genre_id INTEGER REFERENCES genres (id) ON DELETE SET NULL,
				description TEXT,
				published_date DATE,
				total_copies INTEGER NOT NULL DEFAULT 1,
				available_copies INTEGER NOT NULL DEFAULT 1,
				status TEXT NOT NULL DEFAULT 'available',
				cover_image_path TEXT,
				content_file_path TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		// ISBN is optional but unique when present
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_books_isbn ON books (isbn) WHERE isbn IS NOT NULL`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_books_author_id ON books (author_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_books_genre_id ON books (genre_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_books_title ON books (title COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE borrowings (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				book_id INTEGER NOT NULL REFERENCES books (id) ON DELETE CASCADE,
				borrower_name TEXT NOT NULL,
				borrower_email TEXT NOT NULL,
				borrower_phone TEXT,
				borrow_date DATE NOT NULL,
				due_date DATE NOT NULL,
				return_date DATE,
				is_returned BOOLEAN NOT NULL DEFAULT FALSE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_borrowings_book_id ON borrowings (book_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		// The access gate looks up active loans by book and borrower email.
		_, err = db.Exec(`CREATE INDEX ix_borrowings_book_email_returned ON borrowings (book_id, borrower_email COLLATE NOCASE, is_returned)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_borrowings_borrow_date ON borrowings (borrow_date)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				username TEXT NOT NULL,
				email TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL DEFAULT 'member',
				is_active BOOLEAN NOT NULL DEFAULT TRUE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_users_username ON users (username COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_users_email ON users (email COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, table := range []string{"borrowings", "books", "genres", "authors", "users"} {
			_, err := db.Exec(`DROP TABLE IF EXISTS ` + table)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
