package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/saadjs/nutri-cli/internal/model"
)

// PasswordCost is the bcrypt cost used for new hashes.
var PasswordCost = bcrypt.DefaultCost

type UserInput struct {
	ID        string
	Email     string
	Password  string
	Name      string
	Role      model.Role
	PatientID string
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", invalidf("password is required")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func normalizeRole(role model.Role) (model.Role, error) {
	switch model.Role(strings.ToLower(strings.TrimSpace(string(role)))) {
	case model.RoleAdmin:
		return model.RoleAdmin, nil
	case model.RolePatient:
		return model.RolePatient, nil
	default:
		return "", invalidf("invalid role %q (use admin or patient)", role)
	}
}

func CreateUser(db *sql.DB, in UserInput) (string, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		return "", invalidf("user email is required")
	}
	role, err := normalizeRole(in.Role)
	if err != nil {
		return "", err
	}
	if role == model.RolePatient && strings.TrimSpace(in.PatientID) == "" {
		return "", invalidf("patient users need a linked patient id")
	}
	if in.PatientID != "" {
		if err := patientExists(db, in.PatientID); err != nil {
			return "", err
		}
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return "", err
	}
	if in.ID == "" {
		in.ID = newID()
	}
	u := model.User{ID: in.ID, Email: in.Email, PasswordHash: hash, Name: strings.TrimSpace(in.Name), Role: role, PatientID: in.PatientID}
	if err := insertUser(db, u); err != nil {
		return "", err
	}
	return u.ID, nil
}

func insertUser(q querier, u model.User) error {
	var patientID any
	if u.PatientID != "" {
		patientID = u.PatientID
	}
	if _, err := q.Exec(`INSERT INTO users(id, email, password_hash, name, role, patient_id) VALUES(?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.Name, string(u.Role), patientID); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return invalidf("user email %q already exists", u.Email)
		}
		return fmt.Errorf("create user %q: %w", u.Email, err)
	}
	return nil
}

const userColumns = `id, email, password_hash, name, role, IFNULL(patient_id, '')`

func scanUser(s rowScanner) (model.User, error) {
	var u model.User
	var role string
	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role, &u.PatientID)
	u.Role = model.Role(role)
	return u, err
}

// GetUser returns the user without the password hash.
func GetUser(db *sql.DB, id string) (*model.User, error) {
	return getUser(db, id)
}

func getUser(q querier, id string) (*model.User, error) {
	u, err := scanUser(q.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", id, err)
	}
	u.PasswordHash = ""
	return &u, nil
}

func ListUsers(db *sql.DB) ([]model.User, error) {
	users, err := listUsers(db)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func listUsers(q querier) ([]model.User, error) {
	rows, err := q.Query(`SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC, email ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

func DeleteUser(db *sql.DB, id string) error {
	res, err := db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user %q: %w", id, err)
	}
	return requireAffected(res, "user", id)
}

func Login(db *sql.DB, email, password string) (*model.User, error) {
	u, err := scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.TrimSpace(email)))
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	u.PasswordHash = ""
	return &u, nil
}

func SetSession(db *sql.DB, userID string) error {
	if _, err := GetUser(db, userID); err != nil {
		return err
	}
	return SetConfig(db, ConfigSession, userID)
}

// CurrentSession returns the logged-in user, or nil when nobody is logged in
// or the stored user no longer exists.
func CurrentSession(db *sql.DB) (*model.User, error) {
	id, ok, err := GetConfig(db, ConfigSession)
	if err != nil || !ok {
		return nil, err
	}
	u, err := GetUser(db, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return u, err
}

func ClearSession(db *sql.DB) error {
	return DeleteConfig(db, ConfigSession)
}

func RequireAdmin(u *model.User) error {
	if u == nil {
		return fmt.Errorf("not logged in: %w", ErrForbidden)
	}
	if u.Role != model.RoleAdmin {
		return fmt.Errorf("admin role required: %w", ErrForbidden)
	}
	return nil
}

// CanAccessPatient allows admins everything and patients only their own record.
// Patients may read and record their own adherence; nothing else is writable for them.
func CanAccessPatient(u *model.User, patientID string) error {
	if u == nil {
		return fmt.Errorf("not logged in: %w", ErrForbidden)
	}
	if u.Role == model.RoleAdmin {
		return nil
	}
	if u.PatientID != "" && u.PatientID == patientID {
		return nil
	}
	return fmt.Errorf("patient %q is not yours: %w", patientID, ErrForbidden)
}
