package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mzalendo/kazi/core"
	"github.com/mzalendo/kazi/core/application"
	"github.com/mzalendo/kazi/core/message"
	"github.com/mzalendo/kazi/core/position"
	"github.com/mzalendo/kazi/core/user"
)

type applicationApi struct {
	svc      *application.Service
	posSvc   *position.Service
	msgSvc   *message.Service
	logger   core.Logger
	validate *validator.Validate
}

func registerApplicationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := applicationApi{
		svc:      deps.ApplicationSvc,
		posSvc:   deps.PositionSvc,
		msgSvc:   deps.MessageSvc,
		logger:   deps.Logger,
		validate: deps.Validate,
	}

	ag := g.Group("/applications", jwt)
	ag.POST("", api.create, roleMiddleware(user.RoleStudent))
	ag.GET("", api.query)

	dg := ag.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("/review", api.review, roleMiddleware(user.RoleTeacher, user.RoleAdmin))
}

// Handlers

func (api *applicationApi) create(ctx echo.Context) error {
	var data application.NewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	pos, err := api.posSvc.GetByID(ctx.Request().Context(), data.PositionID)
	if err != nil {
		if errors.Cause(err) == position.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding position by ID")
	}
	if !pos.IsOpen() {
		return core.NewValidationError(nil,
			core.FieldError{Field: "position_id", Error: "position is not open for applications"})
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	app, err := api.svc.Apply(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		if _, ok := errors.Cause(err).(*core.ValidationError); ok {
			return err
		}
		return errors.Wrap(err, "creating application")
	}
	return ctx.JSON(http.StatusCreated, app)
}

func (api *applicationApi) query(ctx echo.Context) error {
	filter := new(application.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []application.Application{})
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// students only ever see their own applications
	if claims.IsStudent() {
		filter.StudentID = claims.Subject
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	apps, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying applications")
	}
	if apps == nil {
		apps = []application.Application{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *applicationApi) retrieve(ctx echo.Context) error {
	app, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsStudent() && app.StudentID != claims.Subject {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) review(ctx echo.Context) error {
	app, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data application.ReviewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewApplication")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	app, err = api.svc.Review(ctx.Request().Context(), app, claims.Subject, data)
	if err != nil {
		if _, ok := errors.Cause(err).(*core.ValidationError); ok {
			return err
		}
		return errors.Wrap(err, "reviewing application")
	}

	if app.IsApproved() {
		if _, err := api.posSvc.IncrementStudents(ctx.Request().Context(), app.PositionID); err != nil {
			api.logger.Error("incrementing position students", errors.Wrap(err, "incrementing position students"))
		}
	}
	api.notifyStudent(ctx, app)

	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) notifyStudent(ctx echo.Context, app application.Application) {
	content := "Your application has been " + app.Status + "."
	if app.ReviewComment != "" {
		content += " Comment: " + app.ReviewComment
	}
	err := api.msgSvc.Notify(
		ctx.Request().Context(), app.StudentID, "Application reviewed", content, message.TypeApplication, app.ID)
	if err != nil {
		api.logger.Error("writing application notification", errors.Wrap(err, "writing application notification"))
	}
}

func (api *applicationApi) getObject(ctx echo.Context) (application.Application, error) {
	app, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == application.ErrNotFound {
			return application.Application{}, errHttpNotFound
		}
		return application.Application{}, errors.Wrap(err, "finding application by ID")
	}
	return app, nil
}
