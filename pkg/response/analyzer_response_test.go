package response

import (
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

func TestEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error {
		return OKWithMeta(c, fiber.Map{"x": 1}, &Meta{Total: 3, Succeeded: 2, Failed: 1})
	})
	app.Get("/err", func(c *fiber.Ctx) error {
		return Error(c, 503, "NOT_READY", "warming up")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	if err != nil {
		t.Fatal(err)
	}
	var ok Response
	if err := json.NewDecoder(resp.Body).Decode(&ok); err != nil {
		t.Fatal(err)
	}
	if !ok.Success || ok.Meta == nil || ok.Meta.Failed != 1 {
		t.Errorf("ok response = %+v", ok)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/err", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 503 {
		t.Errorf("status = %d", resp.StatusCode)
	}
	var failed Response
	if err := json.NewDecoder(resp.Body).Decode(&failed); err != nil {
		t.Fatal(err)
	}
	if failed.Success || failed.Error == nil || failed.Error.Code != "NOT_READY" {
		t.Errorf("error response = %+v", failed)
	}
}
