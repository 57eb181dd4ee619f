// Package model holds the GORM models for the example migration set
// under db/migrations.
//
// They demonstrate how an application registers its models for the
// model_definitions_match_ddl check: field tags pin column names,
// types, nullability and index names so the schema GORM would create
// matches the schema the migrations build.
//
//	opts := checks.Options{
//	    Models: []any{model.User{}, model.Post{}},
//	}
//
// The integration tests run the check suite against these models.
package model
