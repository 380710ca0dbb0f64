package scheduling

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinisys/clinic-scheduling/internal/identity"
)

func newTestRegistry() (*Registry, *MemoryRepository) {
	repo := NewMemoryRepository()
	return NewRegistry(repo, zerolog.Nop()), repo
}

func TestRegisterPatient(t *testing.T) {
	ctx := context.Background()
	reg, repo := newTestRegistry()

	p, err := reg.RegisterPatient(ctx, "19.141.061-0", "  juan   perez ", 30)
	require.NoError(t, err)
	assert.Equal(t, "19141061-0", p.RUN)
	assert.Equal(t, "Juan Perez", p.Name)
	assert.Equal(t, 30, p.Age)

	// Persisted before indexed.
	stored, err := repo.ListAllPatients(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Juan Perez", stored[0].Name)

	// Same RUN in a different raw form is a duplicate.
	_, err = reg.RegisterPatient(ctx, "19141061-0", "Juan Again", 31)
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = reg.RegisterPatient(ctx, "not-a-run", "X", 20)
	require.ErrorIs(t, err, identity.ErrInvalidID)

	_, err = reg.RegisterPatient(ctx, "21.072.613-6", "Maria Lopez", -1)
	require.ErrorIs(t, err, ErrInvalidAge)
}

func TestRegisterDoctor(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry()

	d, err := reg.RegisterDoctor(ctx, "24.360.785-K", "dr. simi", "general   medicine", 5)
	require.NoError(t, err)
	assert.Equal(t, "24360785-K", d.RUN)
	assert.Equal(t, "Dr. Simi", d.Name)
	assert.Equal(t, "General Medicine", d.Specialty)
	assert.Equal(t, 5, d.Capacity)

	_, err = reg.RegisterDoctor(ctx, "24360785K", "Dr. Twin", "Cardiology", 3)
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = reg.RegisterDoctor(ctx, "19.141.061-0", "Dr. Zero", "Cardiology", 0)
	require.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestFindLookups(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry()

	_, err := reg.RegisterPatient(ctx, "19.141.061-0", "Juan Perez", 30)
	require.NoError(t, err)

	// Raw form is normalized before lookup.
	p, err := reg.FindPatient(" 19.141.061-0 ")
	require.NoError(t, err)
	assert.Equal(t, "19141061-0", p.RUN)

	_, err = reg.FindPatient("21.072.613-6")
	require.ErrorIs(t, err, ErrPatientNotFound)

	_, err = reg.FindDoctor("24.360.785-K")
	require.ErrorIs(t, err, ErrDoctorNotFound)

	_, err = reg.FindPatient("garbage")
	require.ErrorIs(t, err, identity.ErrInvalidID)
}

func TestSearchDoctorsBySpecialty(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry()

	_, err := reg.RegisterDoctor(ctx, "24.360.785-K", "Dr. Simi", "General Medicine", 5)
	require.NoError(t, err)
	_, err = reg.RegisterDoctor(ctx, "19.141.061-0", "Dr. House", "Diagnostic Medicine", 8)
	require.NoError(t, err)

	found, err := reg.SearchDoctorsBySpecialty("GENERAL")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Dr. Simi", found[0].Name)

	// Substring match spanning both.
	found, err = reg.SearchDoctorsBySpecialty("medicine")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = reg.SearchDoctorsBySpecialty("   ")
	require.ErrorIs(t, err, ErrEmptySearch)

	_, err = reg.SearchDoctorsBySpecialty("dermatology")
	require.ErrorIs(t, err, ErrDoctorNotFound)
}
