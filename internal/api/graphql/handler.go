package graphql

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
	"github.com/descubre-boyaca/descubre-backend/internal/db/repositories"
	"github.com/descubre-boyaca/descubre-backend/internal/domain"
)

// nestedListCap bounds the dishes and reviews lists nested under a
// restaurant, matching the REST per_page maximum.
const nestedListCap = 100

// Handler executes queries against the parsed schema
type Handler struct {
	restaurants *repositories.RestaurantRepository
	dishes      *repositories.DishRepository
	reviews     *repositories.ReviewRepository
}

// NewHandler creates the graphql handler
func NewHandler(
	restaurants *repositories.RestaurantRepository,
	dishes *repositories.DishRepository,
	reviews *repositories.ReviewRepository,
) *Handler {
	return &Handler{restaurants: restaurants, dishes: dishes, reviews: reviews}
}

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// @Summary      GraphQL query
// @Description  Read-only query endpoint over restaurants, dishes, and reviews. Mutations are rejected.
// @Tags         GraphQL
// @Accept       json
// @Produce      json
// @Param        body  body  object  true  "query, operationName, variables"
// @Success      200  {object}  map[string]interface{}  "data or errors in the standard GraphQL envelope"
// @Router       /api/v1/graphql [post]
func (h *Handler) QueryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, gin.H{"errors": gqlerror.List{gqlerror.Errorf("invalid request body")}})
			return
		}

		doc, listErr := gqlparser.LoadQuery(schema, req.Query)
		if listErr != nil {
			c.JSON(http.StatusOK, gin.H{"errors": listErr})
			return
		}

		op := doc.Operations.ForName(req.OperationName)
		if op == nil {
			c.JSON(http.StatusOK, gin.H{"errors": gqlerror.List{gqlerror.Errorf("operation not found")}})
			return
		}
		if op.Operation != ast.Query {
			c.JSON(http.StatusOK, gin.H{"errors": gqlerror.List{gqlerror.Errorf("only queries are supported")}})
			return
		}

		data, err := h.executeQuery(c.Request.Context(), op.SelectionSet, req.Variables)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"errors": gqlerror.List{asGQLError(err)}, "data": nil})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": data})
	}
}

// asGQLError keeps domain error messages and hides everything else.
func asGQLError(err error) *gqlerror.Error {
	var de *domain.Error
	if errors.As(err, &de) {
		return gqlerror.Errorf("%s", de.Message)
	}
	slog.Error("graphql execution error", "error", err)
	return gqlerror.Errorf("internal error")
}

// flatten resolves fragment spreads and inline fragments into a plain field
// list. The validator has already checked type conditions against the schema.
func flatten(sel ast.SelectionSet) []*ast.Field {
	var fields []*ast.Field
	for _, s := range sel {
		switch s := s.(type) {
		case *ast.Field:
			fields = append(fields, s)
		case *ast.InlineFragment:
			fields = append(fields, flatten(s.SelectionSet)...)
		case *ast.FragmentSpread:
			if s.Definition != nil {
				fields = append(fields, flatten(s.Definition.SelectionSet)...)
			}
		}
	}
	return fields
}

func stringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}

func intArg(args map[string]any, name string, fallback int) int {
	switch v := args[name].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func (h *Handler) executeQuery(ctx context.Context, sel ast.SelectionSet, vars map[string]any) (map[string]any, error) {
	out := make(map[string]any)
	for _, field := range flatten(sel) {
		args := field.ArgumentMap(vars)
		var (
			value any
			err   error
		)
		switch field.Name {
		case "__typename":
			value = "Query"
		case "restaurants":
			value, err = h.resolveRestaurants(ctx, args, field.SelectionSet)
		case "restaurant":
			value, err = h.resolveRestaurant(ctx, stringArg(args, "id"), field.SelectionSet)
		case "dishes":
			value, err = h.resolveDishes(ctx, stringArg(args, "restaurantId"), field.SelectionSet)
		case "reviews":
			value, err = h.resolveReviews(ctx, stringArg(args, "restaurantId"), field.SelectionSet)
		default:
			err = domain.Validation("unknown_field", "cannot query field "+field.Name)
		}
		if err != nil {
			return nil, err
		}
		out[field.Alias] = value
	}
	return out, nil
}

func (h *Handler) resolveRestaurants(ctx context.Context, args map[string]any, sel ast.SelectionSet) (any, error) {
	limit := intArg(args, "limit", 20)
	if limit < 1 || limit > nestedListCap {
		limit = 20
	}
	offset := intArg(args, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	filter := models.RestaurantFilter{
		Municipality: stringArg(args, "municipality"),
		Cuisine:      stringArg(args, "cuisine"),
		Query:        stringArg(args, "q"),
	}

	list, _, err := h.restaurants.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, len(list))
	for _, rest := range list {
		projected, err := h.projectRestaurant(ctx, rest, sel)
		if err != nil {
			return nil, err
		}
		out = append(out, projected)
	}
	return out, nil
}

func (h *Handler) resolveRestaurant(ctx context.Context, id string, sel ast.SelectionSet) (any, error) {
	rest, err := h.restaurants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rest == nil {
		return nil, nil
	}
	return h.projectRestaurant(ctx, rest, sel)
}

func (h *Handler) resolveDishes(ctx context.Context, restaurantID string, sel ast.SelectionSet) (any, error) {
	list, _, err := h.dishes.ListByRestaurant(ctx, restaurantID, nestedListCap, 0)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(list))
	for _, dish := range list {
		out = append(out, projectDish(dish, sel))
	}
	return out, nil
}

func (h *Handler) resolveReviews(ctx context.Context, restaurantID string, sel ast.SelectionSet) (any, error) {
	list, _, err := h.reviews.ListByRestaurant(ctx, restaurantID, nestedListCap, 0)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(list))
	for _, review := range list {
		out = append(out, projectReview(review, sel))
	}
	return out, nil
}

func (h *Handler) projectRestaurant(ctx context.Context, rest *models.Restaurant, sel ast.SelectionSet) (map[string]any, error) {
	out := make(map[string]any)
	for _, field := range flatten(sel) {
		switch field.Name {
		case "__typename":
			out[field.Alias] = "Restaurant"
		case "id":
			out[field.Alias] = rest.ID
		case "name":
			out[field.Alias] = rest.Name
		case "slug":
			out[field.Alias] = rest.Slug
		case "description":
			out[field.Alias] = rest.Description
		case "address":
			out[field.Alias] = rest.Address
		case "municipality":
			out[field.Alias] = rest.Municipality
		case "phone":
			out[field.Alias] = rest.Phone
		case "priceRange":
			out[field.Alias] = rest.PriceRange
		case "cuisine":
			out[field.Alias] = rest.Cuisine
		case "active":
			out[field.Alias] = rest.Active
		case "dishes":
			dishes, err := h.resolveDishes(ctx, rest.ID, field.SelectionSet)
			if err != nil {
				return nil, err
			}
			out[field.Alias] = dishes
		case "reviews":
			reviews, err := h.resolveReviews(ctx, rest.ID, field.SelectionSet)
			if err != nil {
				return nil, err
			}
			out[field.Alias] = reviews
		}
	}
	return out, nil
}

func projectDish(dish *models.Dish, sel ast.SelectionSet) map[string]any {
	out := make(map[string]any)
	for _, field := range flatten(sel) {
		switch field.Name {
		case "__typename":
			out[field.Alias] = "Dish"
		case "id":
			out[field.Alias] = dish.ID
		case "restaurantId":
			out[field.Alias] = dish.RestaurantID
		case "name":
			out[field.Alias] = dish.Name
		case "description":
			out[field.Alias] = dish.Description
		case "priceCents":
			out[field.Alias] = dish.PriceCents
		case "category":
			out[field.Alias] = dish.Category
		case "available":
			out[field.Alias] = dish.Available
		}
	}
	return out
}

func projectReview(review *models.ReviewWithUser, sel ast.SelectionSet) map[string]any {
	out := make(map[string]any)
	for _, field := range flatten(sel) {
		switch field.Name {
		case "__typename":
			out[field.Alias] = "Review"
		case "id":
			out[field.Alias] = review.ID
		case "restaurantId":
			out[field.Alias] = review.RestaurantID
		case "userId":
			out[field.Alias] = review.UserID
		case "rating":
			out[field.Alias] = review.Rating
		case "comment":
			out[field.Alias] = review.Comment
		case "userName":
			out[field.Alias] = review.UserName
		}
	}
	return out
}
