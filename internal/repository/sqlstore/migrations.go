package sqlstore

import (
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
)

const migrationsTable = "migrations"

var postgresMigrations = []*migrate.Migration{
	{
		Id: "1_init",
		Up: []string{
			`CREATE TYPE producttype AS ENUM ('PHONE', 'ACCESSORY', 'OTHER')`,
			`CREATE TABLE customer (
				customer_id BIGSERIAL PRIMARY KEY,
				first_name VARCHAR(127) NOT NULL,
				last_name VARCHAR(127) NOT NULL,
				address VARCHAR(255) NOT NULL,
				email VARCHAR(127) NOT NULL UNIQUE
			)`,
			`CREATE INDEX customer_full_name ON customer (first_name, last_name)`,
			`CREATE TABLE employee (
				employee_id BIGSERIAL PRIMARY KEY,
				manager_id BIGINT REFERENCES employee (employee_id),
				name VARCHAR(127) NOT NULL,
				is_manager BOOLEAN NOT NULL DEFAULT FALSE,
				hire_date DATE NOT NULL
			)`,
			`CREATE TABLE product (
				product_id BIGSERIAL PRIMARY KEY,
				product_name VARCHAR(255) NOT NULL,
				unit_price NUMERIC(12, 2) NOT NULL,
				units_in_stock BIGINT NOT NULL,
				type producttype NOT NULL
			)`,
			`CREATE INDEX ix_product_product_name ON product (product_name)`,
			`CREATE TABLE "order" (
				order_id BIGSERIAL PRIMARY KEY,
				customer_id BIGINT NOT NULL REFERENCES customer (customer_id),
				employee_id BIGINT REFERENCES employee (employee_id),
				order_datetime TIMESTAMP NOT NULL,
				is_shipped BOOLEAN NOT NULL DEFAULT FALSE
			)`,
			`CREATE TABLE order_detail (
				order_id BIGINT NOT NULL REFERENCES "order" (order_id) ON DELETE CASCADE,
				product_id BIGINT NOT NULL REFERENCES product (product_id),
				quantity BIGINT NOT NULL,
				PRIMARY KEY (order_id, product_id)
			)`,
		},
		Down: []string{
			`DROP TABLE order_detail`,
			`DROP TABLE "order"`,
			`DROP TABLE product`,
			`DROP TABLE employee`,
			`DROP TABLE customer`,
			`DROP TYPE producttype`,
		},
	},
	{
		Id: "2_employee_full_name",
		Up: []string{
			`ALTER TABLE employee RENAME COLUMN name TO first_name`,
			`ALTER TABLE employee ADD COLUMN last_name VARCHAR(127) NULL`,
		},
		Down: []string{
			`ALTER TABLE employee DROP COLUMN last_name`,
			`ALTER TABLE employee RENAME COLUMN first_name TO name`,
		},
	},
	{
		Id: "3_fulfillment_guards",
		Up: []string{
			`ALTER TABLE product ADD CONSTRAINT product_stock_nonnegative CHECK (units_in_stock >= 0)`,
			`ALTER TABLE product ADD CONSTRAINT product_price_positive CHECK (unit_price > 0)`,
			`ALTER TABLE order_detail ADD CONSTRAINT order_detail_quantity_positive CHECK (quantity > 0)`,
			`ALTER TABLE order_detail ADD COLUMN position INTEGER NOT NULL DEFAULT 0`,
		},
		Down: []string{
			`ALTER TABLE order_detail DROP COLUMN position`,
			`ALTER TABLE order_detail DROP CONSTRAINT order_detail_quantity_positive`,
			`ALTER TABLE product DROP CONSTRAINT product_price_positive`,
			`ALTER TABLE product DROP CONSTRAINT product_stock_nonnegative`,
		},
	},
}

var mysqlMigrations = []*migrate.Migration{
	{
		Id: "1_init",
		Up: []string{
			`CREATE TABLE customer (
				customer_id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
				first_name VARCHAR(127) NOT NULL,
				last_name VARCHAR(127) NOT NULL,
				address VARCHAR(255) NOT NULL,
				email VARCHAR(127) NOT NULL UNIQUE,
				INDEX customer_full_name (first_name, last_name)
			) ENGINE=InnoDB`,
			`CREATE TABLE employee (
				employee_id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
				manager_id BIGINT NULL,
				name VARCHAR(127) NOT NULL,
				is_manager BOOLEAN NOT NULL DEFAULT FALSE,
				hire_date DATE NOT NULL,
				FOREIGN KEY (manager_id) REFERENCES employee (employee_id)
			) ENGINE=InnoDB`,
			`CREATE TABLE product (
				product_id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
				product_name VARCHAR(255) NOT NULL,
				unit_price DECIMAL(12, 2) NOT NULL,
				units_in_stock BIGINT NOT NULL,
				type ENUM('PHONE', 'ACCESSORY', 'OTHER') NOT NULL,
				INDEX ix_product_product_name (product_name)
			) ENGINE=InnoDB`,
			"CREATE TABLE `order` (" + `
				order_id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
				customer_id BIGINT NOT NULL,
				employee_id BIGINT NULL,
				order_datetime DATETIME(6) NOT NULL,
				is_shipped BOOLEAN NOT NULL DEFAULT FALSE,
				FOREIGN KEY (customer_id) REFERENCES customer (customer_id),
				FOREIGN KEY (employee_id) REFERENCES employee (employee_id)
			) ENGINE=InnoDB`,
			`CREATE TABLE order_detail (
				order_id BIGINT NOT NULL,
				product_id BIGINT NOT NULL,
				quantity BIGINT NOT NULL,
				PRIMARY KEY (order_id, product_id),
				FOREIGN KEY (order_id) REFERENCES ` + "`order`" + ` (order_id) ON DELETE CASCADE,
				FOREIGN KEY (product_id) REFERENCES product (product_id)
			) ENGINE=InnoDB`,
		},
		Down: []string{
			`DROP TABLE order_detail`,
			"DROP TABLE `order`",
			`DROP TABLE product`,
			`DROP TABLE employee`,
			`DROP TABLE customer`,
		},
	},
	{
		Id: "2_employee_full_name",
		Up: []string{
			`ALTER TABLE employee RENAME COLUMN name TO first_name`,
			`ALTER TABLE employee ADD COLUMN last_name VARCHAR(127) NULL`,
		},
		Down: []string{
			`ALTER TABLE employee DROP COLUMN last_name`,
			`ALTER TABLE employee RENAME COLUMN first_name TO name`,
		},
	},
	{
		Id: "3_fulfillment_guards",
		Up: []string{
			`ALTER TABLE product ADD CONSTRAINT product_stock_nonnegative CHECK (units_in_stock >= 0)`,
			`ALTER TABLE product ADD CONSTRAINT product_price_positive CHECK (unit_price > 0)`,
			`ALTER TABLE order_detail ADD CONSTRAINT order_detail_quantity_positive CHECK (quantity > 0)`,
			`ALTER TABLE order_detail ADD COLUMN position INT NOT NULL DEFAULT 0`,
		},
		Down: []string{
			`ALTER TABLE order_detail DROP COLUMN position`,
			`ALTER TABLE order_detail DROP CHECK order_detail_quantity_positive`,
			`ALTER TABLE product DROP CHECK product_price_positive`,
			`ALTER TABLE product DROP CHECK product_stock_nonnegative`,
		},
	},
}

// Migrations returns the schema migrations for a dialect.
func Migrations(dialect string) (*migrate.MemoryMigrationSource, error) {
	switch dialect {
	case Postgres:
		return &migrate.MemoryMigrationSource{Migrations: postgresMigrations}, nil
	case MySQL:
		return &migrate.MemoryMigrationSource{Migrations: mysqlMigrations}, nil
	}
	return nil, fmt.Errorf("no migrations for dialect %q", dialect)
}

// Migrate applies up to limit migrations in dir. A limit of 0 means all of them.
// MySQL cannot roll back DDL, so a failure midway leaves the schema partially applied.
func Migrate(db *DB, dir migrate.MigrationDirection, limit int) (int, error) {
	src, err := Migrations(db.dialect)
	if err != nil {
		return 0, err
	}
	migrate.SetTable(migrationsTable)
	n, err := migrate.ExecMax(db.db.DB, db.dialect, src, dir, limit)
	if err != nil {
		return n, fmt.Errorf("migration failed (applied %d migrations): %w", n, err)
	}
	return n, nil
}
