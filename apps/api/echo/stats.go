package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/colegio/core/grade"
	"github.com/trezcool/colegio/core/pension"
	"github.com/trezcool/colegio/core/role"
	"github.com/trezcool/colegio/core/staff"
	"github.com/trezcool/colegio/core/student"
)

type statsApi struct {
	students *student.Service
	staff    *staff.Service
	grades   *grade.Service
	pensions *pension.Service
}

func registerStatsAPI(g *echo.Group, deps ServerDeps) {
	api := statsApi{students: deps.Students, staff: deps.Staff, grades: deps.Grades, pensions: deps.Pensions}

	g.GET("/stats", api.dashboard)
	g.GET("/stats/pensions", api.pensionStats, adminOrSecretary)
}

type dashboardResponse struct {
	Students   student.Stats  `json:"estudiantes"`
	Teachers   int            `json:"docentes"`
	Classrooms int            `json:"aulas"`
	Pensions   *pension.Stats `json:"pensiones,omitempty"`
}

// dashboard loads the home screen figures concurrently. Pension figures are only shown to the office.
func (api *statsApi) dashboard(ctx echo.Context) error {
	var res dashboardResponse
	withPensions := sessionClaims(ctx).HasAnyRole(role.Admin, role.Secretary)

	g, gctx := errgroup.WithContext(ctx.Request().Context())
	g.Go(func() (err error) {
		res.Students, err = api.students.Stats(gctx)
		return errors.Wrap(err, "student stats")
	})
	g.Go(func() error {
		teachers, err := api.staff.Teachers(gctx)
		res.Teachers = len(teachers)
		return errors.Wrap(err, "teachers")
	})
	g.Go(func() error {
		classrooms, err := api.grades.QueryAllClassrooms(gctx)
		for _, c := range classrooms {
			if c.IsActive {
				res.Classrooms++
			}
		}
		return errors.Wrap(err, "classrooms")
	})
	if withPensions {
		g.Go(func() error {
			stats, err := api.pensions.Stats(gctx)
			if err != nil {
				return errors.Wrap(err, "pension stats")
			}
			res.Pensions = &stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "loading dashboard")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *statsApi) pensionStats(ctx echo.Context) error {
	stats, err := api.pensions.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "pension stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}
