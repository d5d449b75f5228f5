package database

import (
	"testing"

	"github.com/Ananth-NQI/smartservice-backend/internal/config"
)

func TestDSN(t *testing.T) {
	base := config.Config{
		DBUser: "postgres", DBPass: "secret", DBName: "smart_service",
		DBHost: "localhost", DBPort: "5432",
	}

	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "tcp",
			mutate: func(*config.Config) {},
			want:   "host=localhost user=postgres password=secret dbname=smart_service port=5432 sslmode=disable",
		},
		{
			name:   "cloud sql socket",
			mutate: func(c *config.Config) { c.InstanceConnectionName = "proj:asia-south1:db" },
			want:   "host=/cloudsql/proj:asia-south1:db user=postgres password=secret dbname=smart_service sslmode=disable",
		},
		{
			name: "url wins",
			mutate: func(c *config.Config) {
				c.InstanceConnectionName = "proj:asia-south1:db"
				c.DatabaseURL = "postgres://u:p@db:5432/x"
			},
			want: "postgres://u:p@db:5432/x",
		},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if got := DSN(cfg); got != tt.want {
				t.Fatalf("DSN = %q, want %q", got, tt.want)
			}
		})
	}
}
