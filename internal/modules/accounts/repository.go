package accounts

import (
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles user and brokerage account database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new accounts repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "accounts").Logger(),
	}
}

// RegisterUser creates a user with a digested password and returns the
// new ID. Emails are unique and stored lowercased.
func (r *Repository) RegisterUser(email, password, firstName string, middleName *string, lastName string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return 0, fmt.Errorf("email cannot be empty")
	}
	if password == "" {
		return 0, fmt.Errorf("password cannot be empty")
	}
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return 0, fmt.Errorf("first and last name are required")
	}

	query := `
		INSERT INTO users (email, password_digest, first_name, middle_name, last_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		email,
		digest(password),
		strings.TrimSpace(firstName),
		middleName,
		strings.TrimSpace(lastName),
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to register user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get user id: %w", err)
	}

	r.log.Info().Int64("user_id", id).Str("email", email).Msg("User registered")
	return id, nil
}

// Authenticate checks an email/password pair and returns the user on
// success, or nil when either the user is unknown or the password does
// not match.
func (r *Repository) Authenticate(email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	query := `
		SELECT id, email, password_digest, first_name, middle_name, last_name, created_at
		FROM users WHERE email = ?
	`

	var user User
	var storedDigest string
	var middleName sql.NullString

	err := r.db.QueryRow(query, email).Scan(
		&user.ID,
		&user.Email,
		&storedDigest,
		&user.FirstName,
		&middleName,
		&user.LastName,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(storedDigest), []byte(digest(password))) != 1 {
		return nil, nil
	}

	if middleName.Valid {
		user.MiddleName = &middleName.String
	}

	return &user, nil
}

// GetUser returns a user by ID, or nil if it does not exist
func (r *Repository) GetUser(id int64) (*User, error) {
	query := `
		SELECT id, email, first_name, middle_name, last_name, created_at
		FROM users WHERE id = ?
	`

	var user User
	var middleName sql.NullString

	err := r.db.QueryRow(query, id).Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&middleName,
		&user.LastName,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if middleName.Valid {
		user.MiddleName = &middleName.String
	}

	return &user, nil
}

// CreateAccount inserts a brokerage account and returns its ID
func (r *Repository) CreateAccount(account BrokerageAccount) (int64, error) {
	if account.OwnerUserID == 0 {
		return 0, fmt.Errorf("owner_user_id is required")
	}
	if strings.TrimSpace(account.AccountNumber) == "" {
		return 0, fmt.Errorf("account_number cannot be empty")
	}
	if strings.TrimSpace(account.BrokerageName) == "" {
		return 0, fmt.Errorf("brokerage_name cannot be empty")
	}
	if account.AccountType == "" {
		account.AccountType = "TAXABLE"
	}
	if account.BaseCurrency == "" {
		account.BaseCurrency = "USD"
	}

	query := `
		INSERT INTO brokerage_accounts (owner_user_id, account_number, account_type, brokerage_name, base_currency, nickname, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		account.OwnerUserID,
		strings.TrimSpace(account.AccountNumber),
		strings.ToUpper(account.AccountType),
		strings.TrimSpace(account.BrokerageName),
		strings.ToUpper(account.BaseCurrency),
		account.Nickname,
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create brokerage account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get account id: %w", err)
	}

	r.log.Info().Int64("account_id", id).Int64("user_id", account.OwnerUserID).Msg("Brokerage account created")
	return id, nil
}

// GetAccountsByOwner returns a user's brokerage accounts ordered by ID
func (r *Repository) GetAccountsByOwner(ownerUserID int64) ([]BrokerageAccount, error) {
	query := `
		SELECT id, owner_user_id, account_number, account_type, brokerage_name, base_currency, nickname, created_at
		FROM brokerage_accounts WHERE owner_user_id = ? ORDER BY id
	`

	rows, err := r.db.Query(query, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query brokerage accounts: %w", err)
	}
	defer rows.Close()

	var accounts []BrokerageAccount
	for rows.Next() {
		var account BrokerageAccount
		var nickname sql.NullString

		err := rows.Scan(
			&account.ID,
			&account.OwnerUserID,
			&account.AccountNumber,
			&account.AccountType,
			&account.BrokerageName,
			&account.BaseCurrency,
			&nickname,
			&account.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brokerage account: %w", err)
		}

		if nickname.Valid {
			account.Nickname = &nickname.String
		}

		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brokerage accounts: %w", err)
	}

	return accounts, nil
}

// GetAccount returns a brokerage account by ID, or nil if not found
func (r *Repository) GetAccount(id int64) (*BrokerageAccount, error) {
	query := `
		SELECT id, owner_user_id, account_number, account_type, brokerage_name, base_currency, nickname, created_at
		FROM brokerage_accounts WHERE id = ?
	`

	var account BrokerageAccount
	var nickname sql.NullString

	err := r.db.QueryRow(query, id).Scan(
		&account.ID,
		&account.OwnerUserID,
		&account.AccountNumber,
		&account.AccountType,
		&account.BrokerageName,
		&account.BaseCurrency,
		&nickname,
		&account.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brokerage account: %w", err)
	}

	if nickname.Valid {
		account.Nickname = &nickname.String
	}

	return &account, nil
}

func digest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
