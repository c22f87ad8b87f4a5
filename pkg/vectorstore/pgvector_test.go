package vectorstore

import "testing"

func TestIsValidTableName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"Valid standard", "syllabus_db", true},
		{"Valid with underscore", "course_ml", true},
		{"Valid with numbers", "course101", true},
		{"Valid short", "a", true},
		{"Valid max length", "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_", true}, // 63 chars
		{"Invalid start with number", "1course", false},
		{"Invalid uppercase start", "Syllabus", false},
		{"Invalid special chars", "course-name", false},
		{"Invalid space", "course name", false},
		{"Invalid SQL injection", "users; DROP TABLE syllabus_db", false},
		{"Invalid empty", "", false},
		{"Invalid too long", "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789__", false}, // 64 chars
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isValidTableName(tt.input); got != tt.expected {
				t.Errorf("isValidTableName(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewSyllabusStoreRejectsBadNames(t *testing.T) {
	if _, err := NewSyllabusStore(nil, "bad name"); err == nil {
		t.Fatal("NewSyllabusStore() accepted an invalid table name")
	}
	store, err := NewSyllabusStore(nil, "syllabus_db")
	if err != nil {
		t.Fatalf("NewSyllabusStore() error = %v", err)
	}
	if store.TableName() != "syllabus_db" {
		t.Errorf("TableName() = %q, want syllabus_db", store.TableName())
	}
}
