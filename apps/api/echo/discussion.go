package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/discussion"
	"github.com/trezcool/darasa/core/user"
)

type discussionApi struct {
	svc      *discussion.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerDiscussionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := discussionApi{
		svc:      deps.DiscussionSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	dg := g.Group("/discussions", jwt)
	dg.POST("", api.create)
	dg.GET("", api.query)
	dg.GET("/:id", api.retrieve)
	dg.DELETE("/:id", api.destroy)
	dg.POST("/:id/comments", api.addComment)
}

// Handlers

func (api *discussionApi) create(ctx echo.Context) error {
	var data discussion.NewDiscussion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDiscussion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	d, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *discussionApi) query(ctx echo.Context) error {
	filter := new(discussion.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	discussions, err := api.svc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying discussions")
	}
	if discussions == nil {
		discussions = []discussion.Discussion{}
	}
	return ctx.JSON(http.StatusOK, discussions)
}

func (api *discussionApi) retrieve(ctx echo.Context) error {
	d, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *discussionApi) addComment(ctx echo.Context) error {
	var data discussion.NewComment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	c, err := api.svc.AddComment(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *discussionApi) destroy(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Discussion deleted successfully"})
}
