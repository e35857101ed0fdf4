package service

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/saadjs/nutri-cli/internal/model"
)

const (
	DefaultPlanName = "Nuevo Plan Nutricional"
	DefaultPlanKcal = 2000
)

type PlanInput struct {
	ID             string
	Name           string
	KcalTarget     int
	Active         bool
	Sections       []model.MealSection
	Supplements    string
	Avoid          string
	Macronutrients *model.Macronutrients
	CreatedAt      string
}

func DefaultPlanSections() []model.MealSection {
	titles := []string{"Desayuno", "Almuerzo", "Cena"}
	out := make([]model.MealSection, 0, len(titles))
	for _, t := range titles {
		out = append(out, model.MealSection{Title: t, Options: []model.Meal{{ID: newID(), Name: "Opción 1"}}})
	}
	return out
}

func normalizePlanInput(in PlanInput) (PlanInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		in.Name = DefaultPlanName
	}
	if in.KcalTarget < 0 {
		return in, invalidf("kcal target must be >= 0")
	}
	if in.Macronutrients != nil {
		m := in.Macronutrients
		for name, v := range map[string]float64{"protein": m.Protein, "carbs": m.Carbs, "fats": m.Fats} {
			if err := validateNonNegativeFloat(name, v); err != nil {
				return in, err
			}
		}
	}
	sections := make([]model.MealSection, 0, len(in.Sections))
	for _, s := range in.Sections {
		s.Title = strings.TrimSpace(s.Title)
		if s.Title == "" {
			return in, invalidf("meal section title is required")
		}
		opts := make([]model.Meal, 0, len(s.Options))
		for i, o := range s.Options {
			if o.ID == "" {
				o.ID = newID()
			}
			o.Name = strings.TrimSpace(o.Name)
			if o.Name == "" {
				o.Name = fmt.Sprintf("Opción %d", i+1)
			}
			o.Description = strings.TrimSpace(o.Description)
			opts = append(opts, o)
		}
		s.Options = opts
		sections = append(sections, s)
	}
	in.Sections = sections
	in.Supplements = strings.TrimSpace(in.Supplements)
	in.Avoid = strings.TrimSpace(in.Avoid)
	return in, nil
}

// AddPlan stores a new plan. A plan without sections gets the default template and,
// without a target, 2000 kcal. An active plan deactivates the patient's other plans.
func AddPlan(db *sql.DB, patientID string, in PlanInput) (string, error) {
	if len(in.Sections) == 0 {
		in.Sections = DefaultPlanSections()
		if in.KcalTarget == 0 {
			in.KcalTarget = DefaultPlanKcal
		}
	}
	in, err := normalizePlanInput(in)
	if err != nil {
		return "", err
	}
	if in.CreatedAt == "" {
		in.CreatedAt = time.Now().Format(timestampLayout)
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin plan tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := patientExists(tx, patientID); err != nil {
		return "", err
	}
	if in.Active {
		if err := deactivatePlans(tx, patientID); err != nil {
			return "", err
		}
	}
	id, err := insertPlan(tx, patientID, planFromInput(in))
	if err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit plan: %w", err)
	}
	return id, nil
}

func planFromInput(in PlanInput) model.Plan {
	return model.Plan{
		ID:             in.ID,
		Name:           in.Name,
		KcalTarget:     in.KcalTarget,
		Active:         in.Active,
		Sections:       in.Sections,
		Supplements:    in.Supplements,
		Avoid:          in.Avoid,
		Macronutrients: in.Macronutrients,
		CreatedAt:      in.CreatedAt,
	}
}

func deactivatePlans(q querier, patientID string) error {
	if _, err := q.Exec(`UPDATE plans SET active = 0 WHERE patient_id = ? AND active = 1`, patientID); err != nil {
		return fmt.Errorf("deactivate plans: %w", err)
	}
	return nil
}

func macroArgs(m *model.Macronutrients) (any, any, any) {
	if m == nil {
		return nil, nil, nil
	}
	return m.Protein, m.Carbs, m.Fats
}

func insertPlan(q querier, patientID string, p model.Plan) (string, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	protein, carbs, fats := macroArgs(p.Macronutrients)
	if _, err := q.Exec(`
INSERT INTO plans(id, patient_id, name, kcal_target, active, supplements, avoid, protein_g, carbs_g, fat_g, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, p.ID, patientID, p.Name, p.KcalTarget, boolToInt(p.Active), p.Supplements, p.Avoid, protein, carbs, fats, p.CreatedAt); err != nil {
		return "", fmt.Errorf("add plan %q: %w", p.Name, err)
	}
	if err := replacePlanSections(q, p.ID, p.Sections); err != nil {
		return "", err
	}
	return p.ID, nil
}

func replacePlanSections(q querier, planID string, sections []model.MealSection) error {
	if _, err := q.Exec(`DELETE FROM plan_sections WHERE plan_id = ?`, planID); err != nil {
		return fmt.Errorf("clear plan sections: %w", err)
	}
	for si, s := range sections {
		if _, err := q.Exec(`INSERT INTO plan_sections(plan_id, position, title) VALUES(?, ?, ?)`, planID, si, s.Title); err != nil {
			return fmt.Errorf("add plan section %q: %w", s.Title, err)
		}
		for oi, o := range s.Options {
			if _, err := q.Exec(`
INSERT INTO plan_meals(plan_id, section_position, position, id, name, description)
VALUES(?, ?, ?, ?, ?, ?)
`, planID, si, oi, o.ID, o.Name, o.Description); err != nil {
				return fmt.Errorf("add plan meal %q: %w", o.Name, err)
			}
		}
	}
	return nil
}

// UpdatePlan replaces the plan's content. CreatedAt is kept from the stored plan.
func UpdatePlan(db *sql.DB, planID string, in PlanInput) error {
	in, err := normalizePlanInput(in)
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin plan tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var patientID string
	err = tx.QueryRow(`SELECT patient_id FROM plans WHERE id = ?`, planID).Scan(&patientID)
	if err == sql.ErrNoRows {
		return notFound("plan", planID)
	}
	if err != nil {
		return fmt.Errorf("lookup plan %q: %w", planID, err)
	}
	if in.Active {
		if err := deactivatePlans(tx, patientID); err != nil {
			return err
		}
	}
	protein, carbs, fats := macroArgs(in.Macronutrients)
	if _, err := tx.Exec(`
UPDATE plans SET name = ?, kcal_target = ?, active = ?, supplements = ?, avoid = ?, protein_g = ?, carbs_g = ?, fat_g = ?
WHERE id = ?
`, in.Name, in.KcalTarget, boolToInt(in.Active), in.Supplements, in.Avoid, protein, carbs, fats, planID); err != nil {
		return fmt.Errorf("update plan %q: %w", planID, err)
	}
	if err := replacePlanSections(tx, planID, in.Sections); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit plan: %w", err)
	}
	return nil
}

// ActivatePlan makes planID the only active plan of its patient.
func ActivatePlan(db *sql.DB, planID string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin activate tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var patientID string
	err = tx.QueryRow(`SELECT patient_id FROM plans WHERE id = ?`, planID).Scan(&patientID)
	if err == sql.ErrNoRows {
		return notFound("plan", planID)
	}
	if err != nil {
		return fmt.Errorf("lookup plan %q: %w", planID, err)
	}
	if err := deactivatePlans(tx, patientID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE plans SET active = 1 WHERE id = ?`, planID); err != nil {
		return fmt.Errorf("activate plan %q: %w", planID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activate plan: %w", err)
	}
	return nil
}

func DeletePlan(db *sql.DB, planID string) error {
	res, err := db.Exec(`DELETE FROM plans WHERE id = ?`, planID)
	if err != nil {
		return fmt.Errorf("delete plan %q: %w", planID, err)
	}
	return requireAffected(res, "plan", planID)
}

func GetPlan(db *sql.DB, planID string) (*model.Plan, string, error) {
	var patientID string
	err := db.QueryRow(`SELECT patient_id FROM plans WHERE id = ?`, planID).Scan(&patientID)
	if err == sql.ErrNoRows {
		return nil, "", notFound("plan", planID)
	}
	if err != nil {
		return nil, "", fmt.Errorf("get plan %q: %w", planID, err)
	}
	plans, err := listPlansWhere(db, `id = ?`, planID)
	if err != nil {
		return nil, "", err
	}
	if len(plans) == 0 {
		return nil, "", notFound("plan", planID)
	}
	return &plans[0], patientID, nil
}

func ListPlans(db *sql.DB, patientID string) ([]model.Plan, error) {
	if err := patientExists(db, patientID); err != nil {
		return nil, err
	}
	return listPlans(db, patientID)
}

func listPlans(q querier, patientID string) ([]model.Plan, error) {
	return listPlansWhere(q, `patient_id = ?`, patientID)
}

func ActivePlan(db *sql.DB, patientID string) (*model.Plan, error) {
	if err := patientExists(db, patientID); err != nil {
		return nil, err
	}
	plans, err := listPlansWhere(db, `patient_id = ? AND active = 1`, patientID)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, nil
	}
	return &plans[0], nil
}

func listPlansWhere(q querier, where string, arg any) ([]model.Plan, error) {
	rows, err := q.Query(`
SELECT id, name, kcal_target, active, supplements, avoid, protein_g, carbs_g, fat_g, created_at
FROM plans WHERE `+where+` ORDER BY created_at DESC, id ASC`, arg)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	out := make([]model.Plan, 0)
	for rows.Next() {
		var p model.Plan
		var protein, carbs, fats sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.Name, &p.KcalTarget, &p.Active, &p.Supplements, &p.Avoid, &protein, &carbs, &fats, &p.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		if protein.Valid || carbs.Valid || fats.Valid {
			p.Macronutrients = &model.Macronutrients{Protein: protein.Float64, Carbs: carbs.Float64, Fats: fats.Float64}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	_ = rows.Close()

	for i := range out {
		sections, err := listPlanSections(q, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Sections = sections
	}
	return out, nil
}

func listPlanSections(q querier, planID string) ([]model.MealSection, error) {
	rows, err := q.Query(`
SELECT s.position, s.title, m.id, m.name, m.description
FROM plan_sections s
LEFT JOIN plan_meals m ON m.plan_id = s.plan_id AND m.section_position = s.position
WHERE s.plan_id = ?
ORDER BY s.position ASC, m.position ASC
`, planID)
	if err != nil {
		return nil, fmt.Errorf("list plan sections: %w", err)
	}
	defer rows.Close()
	out := make([]model.MealSection, 0)
	last := -1
	for rows.Next() {
		var pos int
		var title string
		var id, name, desc sql.NullString
		if err := rows.Scan(&pos, &title, &id, &name, &desc); err != nil {
			return nil, fmt.Errorf("scan plan section: %w", err)
		}
		if pos != last {
			out = append(out, model.MealSection{Title: title, Options: []model.Meal{}})
			last = pos
		}
		if id.Valid {
			s := &out[len(out)-1]
			s.Options = append(s.Options, model.Meal{ID: id.String, Name: name.String, Description: desc.String})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan sections: %w", err)
	}
	return out, nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func PlanSheetFileName(patientName string) string {
	return "Plan_" + whitespaceRun.ReplaceAllString(strings.TrimSpace(patientName), "_") + ".md"
}

func RenderPlanSheet(patientName string, p model.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Plan Nutricional: %s\n\n", p.Name)
	fmt.Fprintf(&b, "Paciente: %s | Kcal: %d\n\n", patientName, p.KcalTarget)
	if m := p.Macronutrients; m != nil {
		fmt.Fprintf(&b, "Proteínas: %.0f g | Carbohidratos: %.0f g | Grasas: %.0f g\n\n", m.Protein, m.Carbs, m.Fats)
	}
	for _, s := range p.Sections {
		fmt.Fprintf(&b, "## %s\n\n", strings.ToUpper(s.Title))
		for _, o := range s.Options {
			desc := o.Description
			if desc == "" {
				desc = "-"
			}
			fmt.Fprintf(&b, "- **%s:** %s\n", o.Name, desc)
		}
		b.WriteString("\n")
	}
	supplements := p.Supplements
	if supplements == "" {
		supplements = "Sin suplementación."
	}
	avoid := p.Avoid
	if avoid == "" {
		avoid = "Ninguno."
	}
	fmt.Fprintf(&b, "## SUPLEMENTOS\n\n%s\n\n", supplements)
	fmt.Fprintf(&b, "## EVITAR\n\n%s\n", avoid)
	return b.String()
}
