package postgres

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'user_role') THEN
			CREATE TYPE user_role AS ENUM ('admin', 'moderator');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'vehicle_status') THEN
			CREATE TYPE vehicle_status AS ENUM ('available', 'maintenance', 'in_use', 'out_of_service');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'fuel_type') THEN
			CREATE TYPE fuel_type AS ENUM ('petrol', 'diesel', 'electric', 'hybrid');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'trip_status') THEN
			CREATE TYPE trip_status AS ENUM ('planned', 'in_progress', 'completed', 'cancelled');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'maintenance_type') THEN
			CREATE TYPE maintenance_type AS ENUM ('scheduled', 'unscheduled', 'repair');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'maintenance_status') THEN
			CREATE TYPE maintenance_status AS ENUM ('pending', 'in_progress', 'completed');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'booking_status') THEN
			CREATE TYPE booking_status AS ENUM ('pending', 'approved', 'declined', 'cancelled', 'completed');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		username VARCHAR(64) NOT NULL UNIQUE,
		password_hash VARCHAR(128) NOT NULL,
		name VARCHAR(128) NOT NULL,
		role user_role NOT NULL DEFAULT 'moderator',
		position VARCHAR(128),
		email VARCHAR(128),
		phone VARCHAR(32),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		make VARCHAR(64) NOT NULL,
		model VARCHAR(64) NOT NULL,
		year INTEGER NOT NULL,
		plate_number VARCHAR(32) NOT NULL UNIQUE,
		vin VARCHAR(17) UNIQUE,
		color VARCHAR(32),
		fuel_type fuel_type NOT NULL,
		status vehicle_status NOT NULL DEFAULT 'available',
		mileage BIGINT NOT NULL DEFAULT 0,
		assigned_driver_id UUID REFERENCES users(id) ON DELETE SET NULL,
		purchase_date TIMESTAMPTZ,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS trips (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id) ON DELETE RESTRICT,
		driver_id UUID NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		start_at TIMESTAMPTZ NOT NULL,
		end_at TIMESTAMPTZ,
		start_odometer BIGINT NOT NULL,
		end_odometer BIGINT,
		fuel_used_l DOUBLE PRECISION,
		purpose TEXT,
		status trip_status NOT NULL DEFAULT 'planned',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS maintenance_records (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id) ON DELETE RESTRICT,
		type maintenance_type NOT NULL,
		description TEXT NOT NULL,
		date TIMESTAMPTZ NOT NULL,
		cost DOUBLE PRECISION,
		odometer_reading BIGINT,
		status maintenance_status NOT NULL DEFAULT 'pending',
		completed_at TIMESTAMPTZ,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id) ON DELETE RESTRICT,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		start_at TIMESTAMPTZ NOT NULL,
		end_at TIMESTAMPTZ NOT NULL,
		purpose TEXT,
		status booking_status NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_status ON vehicles (status);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_assigned_driver_id ON vehicles (assigned_driver_id);`,
	`CREATE INDEX IF NOT EXISTS idx_trips_vehicle_id ON trips (vehicle_id);`,
	`CREATE INDEX IF NOT EXISTS idx_trips_driver_id ON trips (driver_id);`,
	`CREATE INDEX IF NOT EXISTS idx_trips_status ON trips (status);`,
	`CREATE INDEX IF NOT EXISTS idx_trips_start_at ON trips (start_at);`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_records_vehicle_id ON maintenance_records (vehicle_id);`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_records_status ON maintenance_records (status);`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_records_date ON maintenance_records (date);`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_vehicle_id ON bookings (vehicle_id);`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings (user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings (status);`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_start_at ON bookings (start_at);`,
	`CREATE OR REPLACE FUNCTION set_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_users_updated_at') THEN
			CREATE TRIGGER trg_users_updated_at
				BEFORE UPDATE ON users
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_vehicles_updated_at') THEN
			CREATE TRIGGER trg_vehicles_updated_at
				BEFORE UPDATE ON vehicles
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_trips_updated_at') THEN
			CREATE TRIGGER trg_trips_updated_at
				BEFORE UPDATE ON trips
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_maintenance_records_updated_at') THEN
			CREATE TRIGGER trg_maintenance_records_updated_at
				BEFORE UPDATE ON maintenance_records
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_bookings_updated_at') THEN
			CREATE TRIGGER trg_bookings_updated_at
				BEFORE UPDATE ON bookings
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
