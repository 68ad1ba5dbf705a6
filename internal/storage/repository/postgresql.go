// Package repository реализует хранилище данных на основе PostgreSQL
// для кредитных счетов, журналов списаний и пользователей. Предоставляет
// методы чтения, условного списания, сброса цикла и ручного начисления.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrAccountNotFound возвращается, когда кредитный счет пользователя отсутствует.
var ErrAccountNotFound = errors.New("credit account not found")

// ErrUserNotFound возвращается, когда пользователь отсутствует.
var ErrUserNotFound = errors.New("user not found")

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с кредитами и пользователями.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'ai_credits'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table ai_credits missing or query error: %w", err)
	}
	return nil
}
