package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
)

// libraryWorld holds state shared across the steps of one scenario.
type libraryWorld struct {
	engine   *gin.Engine
	subject  string
	response *httptest.ResponseRecorder
	saved    map[string]string
}

func (w *libraryWorld) reset() {
	w.engine = newLibraryRouter(true)
	w.subject = ""
	w.response = nil
	w.saved = make(map[string]string)
}

// expand replaces {name} placeholders with remembered ids.
func (w *libraryWorld) expand(s string) string {
	for name, id := range w.saved {
		s = strings.ReplaceAll(s, "{"+name+"}", id)
	}

	return s
}

func (w *libraryWorld) anEmptyLibrary() error {
	return nil
}

func (w *libraryWorld) iAmSignedInAs(subject string) error {
	w.subject = subject
	return nil
}

func (w *libraryWorld) iSend(method, path string) error {
	return w.send(method, path, "")
}

func (w *libraryWorld) iSendWithBody(method, path string, body *godog.DocString) error {
	return w.send(method, path, body.Content)
}

func (w *libraryWorld) send(method, path, body string) error {
	req := httptest.NewRequest(method, w.expand(path), strings.NewReader(w.expand(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if w.subject != "" {
		req.Header.Set("X-User-ID", w.subject)
	}

	w.response = httptest.NewRecorder()
	w.engine.ServeHTTP(w.response, req)

	return nil
}

func (w *libraryWorld) theResponseStatusShouldBe(code int) error {
	if w.response == nil {
		return fmt.Errorf("no request was sent")
	}

	if w.response.Code != code {
		return fmt.Errorf("expected status %d, got %d. Body: %s", code, w.response.Code, w.response.Body.String())
	}

	return nil
}

func (w *libraryWorld) theResponseShouldContain(text string) error {
	if body := w.response.Body.String(); !strings.Contains(body, text) {
		return fmt.Errorf("response body does not contain %q.\nBody: %s", text, body)
	}

	return nil
}

func (w *libraryWorld) theFieldShouldBe(path, want string) error {
	got, err := w.field(path)
	if err != nil {
		return err
	}

	if got != want {
		return fmt.Errorf("expected %s to be %q, got %q", path, want, got)
	}

	return nil
}

func (w *libraryWorld) iRememberTheIDAs(name string) error {
	id, err := w.field("id")
	if err != nil {
		return err
	}

	w.saved[name] = id

	return nil
}

func (w *libraryWorld) theListShouldHaveItems(count int) error {
	var page struct {
		Items []json.RawMessage `json:"items"`
	}

	if err := json.Unmarshal(w.response.Body.Bytes(), &page); err != nil {
		return fmt.Errorf("decoding list: %w", err)
	}

	if len(page.Items) != count {
		return fmt.Errorf("expected %d items, got %d. Body: %s", count, len(page.Items), w.response.Body.String())
	}

	return nil
}

// field reads a dotted path such as "alert.level" from the JSON response.
func (w *libraryWorld) field(path string) (string, error) {
	var doc any
	if err := json.Unmarshal(w.response.Body.Bytes(), &doc); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	for key := range strings.SplitSeq(path, ".") {
		obj, ok := doc.(map[string]any)
		if !ok {
			return "", fmt.Errorf("%s: not an object", path)
		}

		if doc, ok = obj[key]; !ok {
			return "", fmt.Errorf("%s: no field %q", path, key)
		}
	}

	return fmt.Sprint(doc), nil
}

func initializeLibraryScenario(ctx *godog.ScenarioContext) {
	w := &libraryWorld{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		w.reset()
		return ctx, nil
	})

	ctx.Step(`^an empty library$`, w.anEmptyLibrary)
	ctx.Step(`^I am signed in as "([^"]*)"$`, w.iAmSignedInAs)
	ctx.Step(`^I send "(GET|POST|PUT|PATCH|DELETE)" to "([^"]*)"$`, w.iSend)
	ctx.Step(`^I send "(GET|POST|PUT|PATCH|DELETE)" to "([^"]*)" with:$`, w.iSendWithBody)
	ctx.Step(`^the response status should be (\d+)$`, w.theResponseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, w.theResponseShouldContain)
	ctx.Step(`^the field "([^"]*)" should be "([^"]*)"$`, w.theFieldShouldBe)
	ctx.Step(`^I remember the id as "([^"]*)"$`, w.iRememberTheIDAs)
	ctx.Step(`^the list should have (\d+) items?$`, w.theListShouldHaveItems)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeLibraryScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Tags:     os.Getenv("GODOG_TAGS"),
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
