package database

import (
	"context"
	"errors"
	"erdv/internal/errs"
	"erdv/pkg/config"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pgColumns           = []string{"column_name", "data_type", "character_maximum_length", "numeric_precision", "numeric_scale", "is_nullable", "column_default", "comment"}
	pgForeignKeyColumns = []string{"table_name", "column_name", "foreign_table_name", "foreign_column_name"}
)

func TestPostgreSQL_ExtractCatalog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("audit_log").
			AddRow("customers").
			AddRow("orders"))

	mock.ExpectQuery("FROM information_schema.columns").WithArgs("customers").
		WillReturnRows(sqlmock.NewRows(pgColumns).
			AddRow("id", "integer", nil, 32, 0, false, "nextval('customers_id_seq'::regclass)", "").
			AddRow("email", "character varying", 120, nil, nil, false, nil, "login"))
	mock.ExpectQuery("key_column_usage kcu").WithArgs("customers", "PRIMARY KEY").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("id"))
	mock.ExpectQuery("key_column_usage kcu").WithArgs("customers", "UNIQUE").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("email"))

	mock.ExpectQuery("FROM information_schema.columns").WithArgs("orders").
		WillReturnRows(sqlmock.NewRows(pgColumns).
			AddRow("id", "integer", nil, 32, 0, false, nil, "").
			AddRow("customer_id", "integer", nil, 32, 0, false, nil, "").
			AddRow("total", "numeric", nil, 10, 2, true, "0", ""))
	mock.ExpectQuery("key_column_usage kcu").WithArgs("orders", "PRIMARY KEY").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("id"))
	mock.ExpectQuery("key_column_usage kcu").WithArgs("orders", "UNIQUE").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}))

	mock.ExpectQuery("constraint_column_usage").
		WillReturnRows(sqlmock.NewRows(pgForeignKeyColumns).
			AddRow("audit_log", "customer_id", "customers", "id").
			AddRow("orders", "customer_id", "customers", "id"))

	p := &PostgreSQLExtractor{db: db}
	catalog, err := p.ExtractCatalog(context.Background(), config.SchemaConfig{ExcludeTables: []string{"audit_log"}})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, catalog.Tables, 2)

	customers := catalog.Tables[0]
	assert.Equal(t, []string{"id"}, customers.PrimaryKeys)
	assert.True(t, customers.Columns[0].IsPrimaryKey)
	assert.True(t, customers.Columns[0].IsAutoIncrement)
	assert.True(t, customers.Columns[1].IsUnique)
	assert.Equal(t, 120, *customers.Columns[1].Length)

	require.Len(t, catalog.ForeignKeys, 1)
	assert.Equal(t, "orders", catalog.ForeignKeys[0].Table)
	assert.Equal(t, "login", customers.Columns[1].Comment)

	stableIDs(t)
	d := catalog.Diagram()
	require.Len(t, d.Relations, 1)
	assert.Equal(t, "customers", d.Relations[0].FromEntityID)
	assert.Nil(t, d.Entities["orders"].Attributes[0].Length, "integer precision is not a length")
	assert.Equal(t, "10,2", *d.Entities["orders"].Attributes[2].Length)
}

func TestPostgreSQL_Views(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}))
	mock.ExpectQuery("FROM information_schema.views").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("active_customers"))
	mock.ExpectQuery("FROM information_schema.columns").WithArgs("active_customers").
		WillReturnRows(sqlmock.NewRows(pgColumns).AddRow("id", "integer", nil, 32, 0, true, nil, ""))
	mock.ExpectQuery("constraint_column_usage").
		WillReturnRows(sqlmock.NewRows(pgForeignKeyColumns))

	p := &PostgreSQLExtractor{db: db}
	catalog, err := p.ExtractCatalog(context.Background(), config.SchemaConfig{IncludeViews: true})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, catalog.Views, 1)
	assert.True(t, catalog.Views[0].IsView)
	assert.Len(t, catalog.Views[0].Columns, 1)
}

func TestPostgreSQL_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM information_schema.tables").WillReturnError(errors.New("connection reset"))

	p := &PostgreSQLExtractor{db: db}
	_, err = p.ExtractCatalog(context.Background(), config.SchemaConfig{})
	require.Error(t, err)
	assert.True(t, errs.IsIO(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgreSQL_ColumnCommentsResolvedBySchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// The comment lookup goes through the schema-qualified name; a join on
	// pg_class.relname alone repeats columns for same-named tables elsewhere.
	mock.ExpectQuery(`to_regclass\(quote_ident\(c\.table_schema\) \|\| '\.' \|\| quote_ident\(c\.table_name\)\)`).
		WithArgs("customers").
		WillReturnRows(sqlmock.NewRows(pgColumns).
			AddRow("id", "integer", nil, 32, 0, false, nil, "").
			AddRow("email", "character varying", 120, nil, nil, false, nil, "login"))

	p := &PostgreSQLExtractor{db: db}
	columns, err := p.extractColumns(context.Background(), "customers")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, columns, 2)
	assert.Equal(t, "login", columns[1].Comment)
}
