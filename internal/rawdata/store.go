// Package rawdata 负责原始覆盖数据的读入与场景过滤
// 数据读入内存 SQLite 后以声明式查询完成过滤与迭代
package rawdata

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Store 内存 SQLite 存储，用作原始数据的过滤/查询引擎
type Store struct {
	db *sql.DB
}

// OpenStore 打开内存数据库
func OpenStore() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open raw store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping raw store: %w", err)
	}
	// SQLite 建议单连接
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &Store{db: db}, nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateTable 按列名建全 TEXT 表
func (s *Store) CreateTable(table string, columns []string) error {
	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		defs = append(defs, quoteIdent(col)+" TEXT")
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// InsertRows 批量插入行，单事务提交
func (s *Store) InsertRows(table string, columns []string, rows [][]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	quoted := make([]string, 0, len(columns))
	holes := make([]string, 0, len(columns))
	for _, col := range columns {
		quoted = append(quoted, quoteIdent(col))
		holes = append(holes, "?")
	}
	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(quoted, ", "), strings.Join(holes, ", "),
	))
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for _, row := range rows {
		for i := range columns {
			if i < len(row) {
				args[i] = row[i]
			} else {
				args[i] = ""
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Query 执行查询
func (s *Store) Query(query string, args ...any) (*sql.Rows, error) {
	return s.db.Query(query, args...)
}

// quoteIdent 引用标识符，列名来自外部文件不可信
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
