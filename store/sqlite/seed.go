/*
seed.go - Demo data loader for development and demos

PURPOSE:

	Populates an empty database with the standard gas catalog, a handful of
	hospitals, one administrator, a hospital user per hospital, and a few
	months of consumption so the dashboards render something on first run.

USAGE:

	medgas-server -seed         (only seeds when the users table is empty)

NOTE:

	The seeded passwords are for development only.
*/
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mspbs/medgas/auth"
	"github.com/mspbs/medgas/domain"
)

// Seeded reports whether the database already holds users. Seed is a no-op
// on a seeded database.
func (s *Store) Seeded(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return false, fmt.Errorf("failed to probe users: %w", err)
	}
	return n > 0, nil
}

// Seed loads the demo dataset. Returns without writing when the database
// already has users.
func (s *Store) Seed(ctx context.Context) error {
	seeded, err := s.Seeded(ctx)
	if err != nil {
		return err
	}
	if seeded {
		return nil
	}

	gases := []domain.Gas{
		{Name: "Oxígeno Medicinal", Code: "O2", Unit: "m3", Formula: "O2", Critical: true, Active: true,
			Description: "Oxígeno de grado medicinal, concentración mínima 99.5%"},
		{Name: "Óxido Nitroso", Code: "N2O", Unit: "kg", Formula: "N2O", Active: true,
			Description: "Agente anestésico inhalatorio"},
		{Name: "Aire Medicinal", Code: "AIRE", Unit: "m3", Active: true,
			Description: "Aire comprimido de grado medicinal"},
		{Name: "Dióxido de Carbono", Code: "CO2", Unit: "kg", Formula: "CO2", Active: true,
			Description: "Uso en laparoscopia e insuflación"},
		{Name: "Nitrógeno", Code: "N2", Unit: "m3", Formula: "N2", Active: true,
			Description: "Criopreservación y accionamiento de instrumental"},
		{Name: "Vacío Medicinal", Code: "VACIO", Unit: "m3", Active: true,
			Description: "Succión y drenaje"},
	}
	gasID := map[string]int64{}
	for i := range gases {
		if err := s.CreateGas(ctx, &gases[i]); err != nil {
			return err
		}
		gasID[gases[i].Code] = gases[i].ID
	}

	hospitals := []domain.Hospital{
		{Name: "Hospital Central", Code: "HC-001", Type: "hospital",
			City: "Asunción", Department: "Capital", Region: "Región 18",
			CareLevel: "terciario", Active: true},
		{Name: "Hospital Regional de Encarnación", Code: "HR-002", Type: "hospital",
			City: "Encarnación", Department: "Itapúa", Region: "Región 7",
			CareLevel: "secundario", Active: true},
		{Name: "Centro de Salud San Lorenzo", Code: "CS-003", Type: "centro_salud",
			City: "San Lorenzo", Department: "Central", Region: "Región 11",
			CareLevel: "primario", Active: true},
	}
	for i := range hospitals {
		if err := s.CreateHospital(ctx, &hospitals[i]); err != nil {
			return err
		}
	}

	adminHash, err := auth.HashPassword("admin123")
	if err != nil {
		return err
	}
	admin := User{
		Actor: domain.Actor{
			FirstName: "Administrador", LastName: "General",
			Email: "admin@mspbs.gov.py", Role: domain.RoleAdministrator,
			Active: true,
		},
		PasswordHash: adminHash,
	}
	if err := s.CreateUser(ctx, &admin); err != nil {
		return err
	}

	userHash, err := auth.HashPassword("hospital123")
	if err != nil {
		return err
	}
	reporters := make([]User, 0, len(hospitals))
	for i := range hospitals {
		hid := hospitals[i].ID
		u := User{
			Actor: domain.Actor{
				FirstName: "Usuario", LastName: hospitals[i].Code,
				Email:      fmt.Sprintf("usuario%d@mspbs.gov.py", i+1),
				Role:       domain.RoleHospitalUser,
				HospitalID: &hid,
				Active:     true,
			},
			PasswordHash: userHash,
		}
		if err := s.CreateUser(ctx, &u); err != nil {
			return err
		}
		reporters = append(reporters, u)
	}

	// Three months of oxygen plus a sprinkling of the other gases. The third
	// hospital reports nothing so the missing-report sweep has work to do.
	year := time.Now().UTC().Year()
	type seedRow struct {
		hospital int
		gas      string
		month    time.Month
		mode     domain.SupplyMode
		qty      string
	}
	seedRows := []seedRow{
		{0, "O2", time.January, domain.SupplyCryogenicTank, "1250.5"},
		{0, "O2", time.February, domain.SupplyCryogenicTank, "1310.0"},
		{0, "O2", time.March, domain.SupplyCryogenicTank, "1287.25"},
		{0, "N2O", time.January, domain.SupplyCylinders, "84.2"},
		{0, "AIRE", time.February, domain.SupplyCentralNetwork, "940.0"},
		{1, "O2", time.January, domain.SupplyCylinders, "412.75"},
		{1, "O2", time.February, domain.SupplyCylinders, "398.0"},
		{1, "CO2", time.March, domain.SupplyCylinders, "22.4"},
	}
	for _, row := range seedRows {
		h := hospitals[row.hospital]
		qty, err := decimal.NewFromString(row.qty)
		if err != nil {
			return err
		}
		start := domain.NewDate(year, row.month, 1)
		end := start.AddDays(27)
		rec := domain.Record{
			HospitalID: h.ID,
			GasID:      gasID[row.gas],
			Period:     domain.Period{Start: start, End: end},
			SupplyMode: row.mode,
			Quantity:   qty,
			Unit:       unitFor(gases, row.gas),
			ReportedBy: reporters[row.hospital].ID,
		}
		if err := s.CreateRecord(ctx, &rec); err != nil {
			return err
		}
	}

	return nil
}

func unitFor(gases []domain.Gas, code string) string {
	for _, g := range gases {
		if g.Code == code {
			return g.Unit
		}
	}
	return ""
}
