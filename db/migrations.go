package db

import "embed"

// Migrations - SQL-миграции хранилища корзин, встраиваются в бинарник.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir - каталог миграций внутри Migrations.
const MigrationsDir = "migrations"
