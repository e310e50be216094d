// Package graph declares the GraphQL contract of the phonebook service
// and binds it to the service layer: object types, resolvers, and the
// websocket transport for subscriptions.
package graph

import (
	"github.com/graphql-go/graphql"

	"github.com/mmynk/phonebook/internal/models"
	"github.com/mmynk/phonebook/internal/pubsub"
	"github.com/mmynk/phonebook/internal/service"
	"github.com/mmynk/phonebook/internal/storage"
)

// token is the payload of the login mutation.
type token struct {
	Value string `json:"value"`
}

// NewSchema builds the executable schema over the phonebook service and
// the person-added event publisher.
func NewSchema(svc *service.Phonebook, events *pubsub.PersonEvents) (graphql.Schema, error) {
	yesNoEnum := graphql.NewEnum(graphql.EnumConfig{
		Name:        "YesNo",
		Description: "Filter persons by presence of a phone number.",
		Values: graphql.EnumValueConfigMap{
			"YES": &graphql.EnumValueConfig{Value: storage.FilterWithPhone},
			"NO":  &graphql.EnumValueConfig{Value: storage.FilterWithoutPhone},
		},
	})

	addressType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Address",
		Fields: graphql.Fields{
			"street": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"city":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	personType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Person",
		Fields: graphql.Fields{
			"name": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"phone": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					person, ok := p.Source.(*models.Person)
					if !ok || !person.HasPhone() {
						return nil, nil
					}
					return person.Phone, nil
				},
			},
			"address": &graphql.Field{
				Type: graphql.NewNonNull(addressType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					person, ok := p.Source.(*models.Person)
					if !ok {
						return nil, nil
					}
					return person.Address(), nil
				},
			},
			"id": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"username": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"friends":  &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(personType)))},
			"id":       &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		},
	})

	tokenType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Token",
		Fields: graphql.Fields{
			"value": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	editNumberInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "EditNumberInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"phone": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	loginCredentialsInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "LoginCredentials",
		Fields: graphql.InputObjectConfigFieldMap{
			"username": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"personCount": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return svc.PersonCount(p.Context)
				},
			},
			"allPersons": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(personType))),
				Args: graphql.FieldConfigArgument{
					"phone": &graphql.ArgumentConfig{Type: yesNoEnum},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					filter := storage.FilterAll
					if f, ok := p.Args["phone"].(storage.PhoneFilter); ok {
						filter = f
					}
					return svc.AllPersons(p.Context, filter)
				},
			},
			"findPerson": &graphql.Field{
				Type: personType,
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					person, err := svc.FindPerson(p.Context, stringArg(p.Args, "name"))
					if err != nil || person == nil {
						return nil, err
					}
					return person, nil
				},
			},
			"me": &graphql.Field{
				Type: userType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user := svc.Me(p.Context)
					if user == nil {
						return nil, nil
					}
					return user, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"addPerson": &graphql.Field{
				Type: personType,
				Args: graphql.FieldConfigArgument{
					"name":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"phone":  &graphql.ArgumentConfig{Type: graphql.String},
					"street": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"city":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					person, err := svc.AddPerson(p.Context, service.AddPersonInput{
						Name:   stringArg(p.Args, "name"),
						Phone:  stringArg(p.Args, "phone"),
						Street: stringArg(p.Args, "street"),
						City:   stringArg(p.Args, "city"),
					})
					if err != nil {
						return nil, err
					}
					return person, nil
				},
			},
			"editNumber": &graphql.Field{
				Type: personType,
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: editNumberInput},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					input, _ := p.Args["input"].(map[string]interface{})
					person, err := svc.EditNumber(p.Context, service.EditNumberInput{
						Name:  stringArg(input, "name"),
						Phone: stringArg(input, "phone"),
					})
					if err != nil {
						return nil, err
					}
					return person, nil
				},
			},
			"createUser": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"username": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := svc.CreateUser(p.Context, service.CreateUserInput{
						Username: stringArg(p.Args, "username"),
						Password: stringArg(p.Args, "password"),
					})
					if err != nil {
						return nil, err
					}
					return user, nil
				},
			},
			"login": &graphql.Field{
				Type: tokenType,
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: loginCredentialsInput},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					input, _ := p.Args["input"].(map[string]interface{})
					value, err := svc.Login(p.Context, service.LoginInput{
						Username: stringArg(input, "username"),
						Password: stringArg(input, "password"),
					})
					if err != nil {
						return nil, err
					}
					return token{Value: value}, nil
				},
			},
			"addAsFriend": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := svc.AddAsFriend(p.Context, stringArg(p.Args, "name"))
					if err != nil {
						return nil, err
					}
					return user, nil
				},
			},
		},
	})

	subscriptionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Subscription",
		Fields: graphql.Fields{
			"personAdded": &graphql.Field{
				Type: graphql.NewNonNull(personType),
				Subscribe: func(p graphql.ResolveParams) (interface{}, error) {
					persons := events.Subscribe(p.Context)
					out := make(chan interface{})
					go func() {
						defer close(out)
						for person := range persons {
							select {
							case out <- person:
							case <-p.Context.Done():
								return
							}
						}
					}()
					return out, nil
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					// Each event is re-executed with the person as root.
					return p.Source, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:        queryType,
		Mutation:     mutationType,
		Subscription: subscriptionType,
	})
}

// stringArg reads an optional string argument, tolerating absent keys
// and nil maps.
func stringArg(args map[string]interface{}, key string) string {
	if args == nil {
		return ""
	}
	s, _ := args[key].(string)
	return s
}
