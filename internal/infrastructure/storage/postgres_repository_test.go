package storage

import (
	"strings"
	"testing"

	"LeadScout/internal/domain"
)

func TestListQueryNoFilters(t *testing.T) {
	t.Parallel()

	sqlStr, args, err := listQuery(domain.LeadFilter{}).Columns("COUNT(*)").ToSql()
	if err != nil {
		t.Fatalf("ToSql error: %v", err)
	}

	if sqlStr != "SELECT COUNT(*) FROM leads" {
		t.Fatalf("unexpected sql: %s", sqlStr)
	}
	if len(args) != 0 {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestListQueryAppliesFilters(t *testing.T) {
	t.Parallel()

	filter := domain.LeadFilter{
		Platform: domain.PlatformReddit,
		MinScore: 6,
		MaxScore: 9,
	}

	sqlStr, args, err := listQuery(filter).Columns("id").ToSql()
	if err != nil {
		t.Fatalf("ToSql error: %v", err)
	}

	for _, fragment := range []string{"platform = $1", "lead_score >= $2", "lead_score <= $3"} {
		if !strings.Contains(sqlStr, fragment) {
			t.Fatalf("sql missing %q: %s", fragment, sqlStr)
		}
	}

	if len(args) != 3 || args[0] != "reddit" || args[1] != 6 || args[2] != 9 {
		t.Fatalf("unexpected args: %v", args)
	}
}
