package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"marlizintel.com/intel/internal/db"
	"marlizintel.com/intel/internal/graveyard"
)

func TestArticleDetail_GoneCarriesBurialRecord(t *testing.T) {
	t.Parallel()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	pool, err := db.NewPoolWithConn(conn)
	if err != nil {
		t.Fatalf("wrap mock connection: %v", err)
	}

	srv := &Server{
		pool:   pool,
		logger: zerolog.Nop(),
		services: Services{
			Graveyard: graveyard.NewService(pool, zerolog.Nop()),
		},
	}

	mock.ExpectQuery("EXISTS").
		WithArgs("example-breach-report").
		WillReturnRows(sqlmock.NewRows([]string{"live", "buried"}).AddRow(false, true))
	mock.ExpectQuery("reason, deleted_at").
		WithArgs("example-breach-report").
		WillReturnRows(sqlmock.NewRows([]string{"slug", "reason", "deleted_at"}).
			AddRow("example-breach-report", "manual removal", time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/articles/example-breach-report", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("slug")
	c.SetParamValues("example-breach-report")

	if err := srv.handleArticleDetail(c); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if rec.Code != http.StatusGone {
		t.Fatalf("expected 410, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "manual removal") || !strings.Contains(body, "removed_at") {
		t.Fatalf("410 body is missing the burial record: %s", body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
