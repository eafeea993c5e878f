// Package graphql serves the read-only query endpoint. The schema mirrors the
// public REST surface; execution walks the validated query document directly
// against the repositories, so there is no generated resolver layer to keep in
// sync.
package graphql

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

const schemaSource = `
type Restaurant {
  id: ID!
  name: String!
  slug: String!
  description: String!
  address: String!
  municipality: String!
  phone: String!
  priceRange: Int!
  cuisine: String!
  active: Boolean!
  dishes: [Dish!]!
  reviews: [Review!]!
}

type Dish {
  id: ID!
  restaurantId: ID!
  name: String!
  description: String!
  priceCents: Int!
  category: String!
  available: Boolean!
}

type Review {
  id: ID!
  restaurantId: ID!
  userId: ID!
  rating: Int!
  comment: String!
  userName: String!
}

type Query {
  restaurants(municipality: String, cuisine: String, q: String, limit: Int = 20, offset: Int = 0): [Restaurant!]!
  restaurant(id: ID!): Restaurant
  dishes(restaurantId: ID!): [Dish!]!
  reviews(restaurantId: ID!): [Review!]!
}
`

var schema = gqlparser.MustLoadSchema(&ast.Source{
	Name:  "schema.graphql",
	Input: schemaSource,
})
