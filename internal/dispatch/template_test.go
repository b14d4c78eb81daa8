package dispatch

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
)

func TestRenderDefaultTemplate(t *testing.T) {
	t.Parallel()

	msg := Render("", Message{
		Name:      " Asha Rao ",
		Time:      time.Date(2024, 8, 12, 14, 5, 0, 0, time.UTC),
		Subsystem: "Dev",
	})

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, "default_message", []byte(msg))
}

func TestRenderCustomTemplate(t *testing.T) {
	t.Parallel()

	got := Render("{{NAME}} / {{TIME}} / {{SUBSYSTEM}} / {{NAME}}", Message{
		Name:      "Ravi",
		Time:      time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC),
		Subsystem: "Design",
	})

	if want := "Ravi / 03/01/2024, 09:30 AM / Design / Ravi"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
