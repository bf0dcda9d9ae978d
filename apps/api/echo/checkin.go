package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mzalendo/kazi/core/checkin"
	"github.com/mzalendo/kazi/core/user"
)

type checkinApi struct {
	svc      *checkin.Service
	validate *validator.Validate
}

func registerCheckinAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := checkinApi{
		svc:      deps.CheckinSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/checkins", jwt)
	cg.POST("", api.create, roleMiddleware(user.RoleStudent))
	cg.GET("", api.query)
	cg.GET("/statistics", api.stats)
}

type checkinResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type checkinResult struct {
	ID          string         `json:"id"`
	Status      checkin.Status `json:"status"`
	Distance    float64        `json:"distance"` // meters
	CheckinTime time.Time      `json:"checkin_time"`
	LateMinutes int            `json:"late_minutes"`
}

// Handlers

func (api *checkinApi) create(ctx echo.Context) error {
	var data checkin.NewCheckin
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCheckin")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	res, err := api.svc.Check(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		// Rejections surface via the HTTP error handler with their codes
		return err
	}

	return ctx.JSON(http.StatusCreated, checkinResponse{
		Success: true,
		Data: checkinResult{
			ID:          res.Record.ID,
			Status:      res.Record.Status,
			Distance:    res.Record.Distance,
			CheckinTime: res.Record.CheckinTime,
			LateMinutes: res.LateMinutes,
		},
	})
}

func (api *checkinApi) query(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	records, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying check-ins")
	}
	if records == nil {
		records = []checkin.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *checkinApi) stats(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}

	stats, err := api.svc.Statistics(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "computing check-in statistics")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// bindFilter binds the query filter and pins students to their own records.
func (api *checkinApi) bindFilter(ctx echo.Context) (*checkin.QueryFilter, error) {
	filter := new(checkin.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return nil, errors.Wrap(err, "binding to QueryFilter")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting context claims")
	}
	if claims.IsStudent() {
		filter.StudentID = claims.Subject
	}
	return filter, nil
}
