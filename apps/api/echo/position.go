package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mzalendo/kazi/core/position"
	"github.com/mzalendo/kazi/core/user"
)

type positionApi struct {
	svc      *position.Service
	validate *validator.Validate
}

func registerPositionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := positionApi{
		svc:      deps.PositionSvc,
		validate: deps.Validate,
	}

	pg := g.Group("/positions", jwt)
	pg.GET("", api.query)
	pg.POST("", api.create, roleMiddleware(user.RoleTeacher, user.RoleAdmin))

	dg := pg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, roleMiddleware(user.RoleTeacher, user.RoleAdmin))
	dg.DELETE("", api.destroy, roleMiddleware(user.RoleTeacher, user.RoleAdmin))
}

// Handlers

func (api *positionApi) create(ctx echo.Context) error {
	var data position.NewPosition
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPosition")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	pos, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating position")
	}
	return ctx.JSON(http.StatusCreated, pos)
}

func (api *positionApi) query(ctx echo.Context) error {
	filter := new(position.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []position.Position{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	positions, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying positions")
	}
	if positions == nil {
		positions = []position.Position{}
	}
	return ctx.JSON(http.StatusOK, positions)
}

func (api *positionApi) retrieve(ctx echo.Context) error {
	pos, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pos)
}

func (api *positionApi) update(ctx echo.Context) error {
	pos, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err = api.checkOwnership(ctx, pos); err != nil {
		return err
	}

	var data position.UpdatePosition
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePosition")
	}
	if err := data.Validate(pos, api.validate); err != nil {
		return err
	}

	pos, err = api.svc.Update(ctx.Request().Context(), pos, data)
	if err != nil {
		return errors.Wrap(err, "updating position")
	}
	return ctx.JSON(http.StatusOK, pos)
}

func (api *positionApi) destroy(ctx echo.Context) error {
	pos, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err = api.checkOwnership(ctx, pos); err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), pos.ID); err != nil {
		return errors.Wrap(err, "deleting position")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *positionApi) getObject(ctx echo.Context) (position.Position, error) {
	pos, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == position.ErrNotFound {
			return position.Position{}, errHttpNotFound
		}
		return position.Position{}, errors.Wrap(err, "finding position by ID")
	}
	return pos, nil
}

// checkOwnership only lets the publisher or an admin modify a position.
func (api *positionApi) checkOwnership(ctx echo.Context, pos position.Position) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsAdmin() || claims.Subject == pos.PublisherID {
		return nil
	}
	return errHttpForbidden
}
