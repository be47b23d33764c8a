package reminder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/invitame/wedding-invitation-service/internal/model"
)

func TestSubstitute_FullDictionary(t *testing.T) {
	name := "Luis"
	g := model.Guest{Name: "Ana Pérez", HasPlusOne: true, PlusOneName: &name}
	l := model.LandingPage{CeremonyTime: "18:00"}

	r := BuildReplacements(g, "Mesa 3", l)
	got := Substitute("Hola {nombre}, tu mesa es {mesa} y la ceremonia es a las {hora_ceremonia}", r)
	assert.Equal(t, "Hola Ana, tu mesa es Mesa 3 y la ceremonia es a las 18:00", got)

	assert.Equal(t, "Vienes con Luis", Substitute("Vienes con {acompañante}", r))
}

func TestSubstitute_MissingFieldsUseFallbacks(t *testing.T) {
	g := model.Guest{Name: "Ana"}
	r := BuildReplacements(g, "", model.LandingPage{})

	got := Substitute("{mesa} / {fecha} / {lugar_fiesta} / {acompañante}", r)
	assert.Equal(t, "sin mesa / no definido / no definido / sin acompañante", got)
	assert.NotContains(t, got, "{")
}

func TestSubstitute_UnknownTokenLeftAlone(t *testing.T) {
	r := BuildReplacements(model.Guest{Name: "Ana"}, "", model.LandingPage{})
	assert.Equal(t, "Hola {desconocido}", Substitute("Hola {desconocido}", r))
}

func TestSubstitute_SubjectAndRepeatedTokens(t *testing.T) {
	g := model.Guest{Name: "Ana"}
	r := BuildReplacements(g, "Mesa 1", model.LandingPage{EventDate: "2026-10-10"})
	assert.Equal(t, "Ana Ana 2026-10-10", Substitute("{nombre} {nombre} {fecha}", r))
}

func TestBuildReplacements_PlusOneWithoutName(t *testing.T) {
	g := model.Guest{Name: "Ana", HasPlusOne: true}
	r := BuildReplacements(g, "", model.LandingPage{})
	assert.Equal(t, FallbackNoPlusOne, r["acompañante"])
}
