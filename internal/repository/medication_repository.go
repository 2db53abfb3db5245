package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/evercare/carelink-api/internal/models"
	"github.com/pkg/errors"
)

type MedicationRepository interface {
	Create(ctx context.Context, medication models.Medication) (models.Medication, error)
	GetByID(ctx context.Context, medicationID string) (models.Medication, error)
	ListByUser(ctx context.Context, userID string) ([]models.Medication, error)
	Update(ctx context.Context, medication models.Medication) (models.Medication, error)
	SetStatus(ctx context.Context, medicationID string, status models.MedicationStatus) (models.Medication, error)
	Delete(ctx context.Context, medicationID string) error
}

type medicationRepository struct {
	db *sql.DB
}

func NewMedicationRepository(db *sql.DB) MedicationRepository {
	return &medicationRepository{db: db}
}

const medicationColumns = `id, user_id, name, dosage, notes, status, start_date, recurrence_rule, created_at, updated_at`

func (r *medicationRepository) Create(ctx context.Context, medication models.Medication) (models.Medication, error) {
	rule, err := json.Marshal(medication.Rule)
	if err != nil {
		return models.Medication{}, errors.Wrap(err, "marshal recurrence rule")
	}

	const query = `
		INSERT INTO care.medications (user_id, name, dosage, notes, status, start_date, recurrence_rule)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + medicationColumns
	saved, err := scanMedication(r.db.QueryRowContext(ctx, query,
		medication.UserID,
		medication.Name,
		medication.Dosage,
		medication.Notes,
		medication.Status,
		medication.StartDate,
		rule,
	))
	if err != nil {
		return models.Medication{}, errors.Wrap(err, "insert medication")
	}
	return saved, nil
}

func (r *medicationRepository) GetByID(ctx context.Context, medicationID string) (models.Medication, error) {
	const query = `SELECT ` + medicationColumns + ` FROM care.medications WHERE id = $1 AND deleted_at IS NULL`
	medication, err := scanMedication(r.db.QueryRowContext(ctx, query, medicationID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Medication{}, &models.NotFoundError{Resource: "medication", ID: medicationID}
	}
	return medication, err
}

func (r *medicationRepository) ListByUser(ctx context.Context, userID string) ([]models.Medication, error) {
	const query = `
		SELECT ` + medicationColumns + `
		FROM care.medications
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var medications []models.Medication
	for rows.Next() {
		medication, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		medications = append(medications, medication)
	}
	return medications, rows.Err()
}

func (r *medicationRepository) Update(ctx context.Context, medication models.Medication) (models.Medication, error) {
	rule, err := json.Marshal(medication.Rule)
	if err != nil {
		return models.Medication{}, errors.Wrap(err, "marshal recurrence rule")
	}

	const query = `
		UPDATE care.medications
		SET name = $2, dosage = $3, notes = $4, status = $5, start_date = $6, recurrence_rule = $7, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + medicationColumns
	updated, err := scanMedication(r.db.QueryRowContext(ctx, query,
		medication.ID,
		medication.Name,
		medication.Dosage,
		medication.Notes,
		medication.Status,
		medication.StartDate,
		rule,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Medication{}, &models.NotFoundError{Resource: "medication", ID: medication.ID}
	}
	return updated, err
}

func (r *medicationRepository) SetStatus(ctx context.Context, medicationID string, status models.MedicationStatus) (models.Medication, error) {
	const query = `
		UPDATE care.medications
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + medicationColumns
	updated, err := scanMedication(r.db.QueryRowContext(ctx, query, medicationID, status))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Medication{}, &models.NotFoundError{Resource: "medication", ID: medicationID}
	}
	return updated, err
}

func (r *medicationRepository) Delete(ctx context.Context, medicationID string) error {
	const query = `UPDATE care.medications SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, medicationID)
	if err != nil {
		return errors.Wrap(err, "delete medication")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &models.NotFoundError{Resource: "medication", ID: medicationID}
	}
	return nil
}

func scanMedication(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Medication, error) {
	var (
		medication models.Medication
		ruleRaw    []byte
	)
	if err := scanner.Scan(
		&medication.ID,
		&medication.UserID,
		&medication.Name,
		&medication.Dosage,
		&medication.Notes,
		&medication.Status,
		&medication.StartDate,
		&ruleRaw,
		&medication.CreatedAt,
		&medication.UpdatedAt,
	); err != nil {
		return models.Medication{}, err
	}
	if len(ruleRaw) > 0 {
		if err := json.Unmarshal(ruleRaw, &medication.Rule); err != nil {
			return models.Medication{}, errors.Wrap(err, "unmarshal recurrence rule")
		}
	}
	return medication, nil
}
