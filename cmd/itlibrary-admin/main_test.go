package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/itlibrary/internal/domain"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("ITLIBRARY_STORAGE_BACKEND", "filesystem")
	t.Setenv("ITLIBRARY_STORAGE_DIR", filepath.Join(dir, "documents"))
	t.Setenv("ITLIBRARY_LOGGING_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runWithInput(t, "", args...)
}

func runWithInput(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// loginAdmin remembers the seeded admin as the current user.
func loginAdmin(t *testing.T) {
	t.Helper()
	_, _, err := run(t, "login", "admin", "admin123")
	require.NoError(t, err)
}

func TestCLI_InitAndList(t *testing.T) {
	setupEnv(t)

	out, _, err := run(t, "init")
	require.NoError(t, err)
	require.Contains(t, out, "Seeded: users, subjects, resources")
	require.Contains(t, out, "Reconciled subjects: 1")

	out, _, err = run(t, "init")
	require.NoError(t, err)
	require.Contains(t, out, "Store already initialized.")

	out, _, err = run(t, "subjects", "list", "--stage", "2")
	require.NoError(t, err)
	require.Contains(t, out, "IT201")
	require.Contains(t, out, "IT202")
	require.NotContains(t, out, "IT101")
}

func TestCLI_CatalogMutations(t *testing.T) {
	setupEnv(t)
	loginAdmin(t)

	out, _, err := run(t, "subjects", "add", "IT301", "Networks", "--stage", "3")
	require.NoError(t, err)
	require.Contains(t, out, "تمت إضافة المادة بنجاح")

	_, stderr, err := run(t, "subjects", "add", "IT301", "Again")
	require.ErrorIs(t, err, domain.ErrDuplicateSubjectID)
	require.Contains(t, stderr, "رمز المادة موجود مسبقاً")

	out, _, err = run(t, "resources", "add", "IT301", "OSI model", "--id", "R900", "--date", "2024-05-01")
	require.NoError(t, err)
	require.Contains(t, out, "Resource ID: R900")

	out, _, err = run(t, "resources", "list", "--subject", "IT301")
	require.NoError(t, err)
	require.Contains(t, out, "2024-05-01")

	out, _, err = run(t, "subjects", "delete", "IT301")
	require.NoError(t, err)
	require.Contains(t, out, "Removed resources: 1")

	out, _, err = run(t, "resources", "list", "--subject", "IT301")
	require.NoError(t, err)
	require.Contains(t, out, "No resources found.")
}

func TestCLI_ExportImport(t *testing.T) {
	dir := setupEnv(t)
	backup := filepath.Join(dir, "backup.json")

	_, _, err := run(t, "init")
	require.NoError(t, err)
	loginAdmin(t)
	_, _, err = run(t, "export", "-o", backup)
	require.NoError(t, err)

	_, _, err = run(t, "subjects", "delete", "IT101")
	require.NoError(t, err)

	out, _, err := run(t, "import", backup)
	require.NoError(t, err)
	require.Contains(t, out, "تم استيراد البيانات بنجاح")

	out, _, err = run(t, "subjects", "list")
	require.NoError(t, err)
	require.Contains(t, out, "IT101")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"users": 1}`), 0o600))
	_, stderr, err := run(t, "import", bad)
	require.ErrorIs(t, err, domain.ErrMalformedImportDocument)
	require.Contains(t, stderr, "ملف الاستيراد غير صالح")
}

func TestCLI_MutationsNeedAdmin(t *testing.T) {
	setupEnv(t)

	_, stderr, err := run(t, "subjects", "add", "IT301", "Networks")
	require.ErrorIs(t, err, domain.ErrNotLoggedIn)
	require.Contains(t, stderr, "يجب تسجيل الدخول أولاً")

	_, _, err = run(t, "users", "register", "sara", "pw", "--stage", "2")
	require.NoError(t, err)
	out, _, err := run(t, "login", "sara", "pw")
	require.NoError(t, err)
	require.Contains(t, out, "Route: student")

	for _, args := range [][]string{
		{"subjects", "add", "IT301", "Networks"},
		{"subjects", "delete", "IT101"},
		{"resources", "add", "IT101", "Slides"},
		{"resources", "delete", "R001"},
		{"import", "missing.json"},
	} {
		_, stderr, err := run(t, args...)
		require.ErrorIs(t, err, domain.ErrAccessDenied, args)
		require.Contains(t, stderr, "غير مصرح لك بهذه العملية")
	}

	out, _, err = run(t, "subjects", "list")
	require.NoError(t, err)
	require.Contains(t, out, "IT101")
	require.NotContains(t, out, "IT301")
}

func TestCLI_UsersAndSession(t *testing.T) {
	setupEnv(t)

	out, _, err := run(t, "users", "register", "sara", "pw", "--name", "Sara", "--stage", "2")
	require.NoError(t, err)
	require.Contains(t, out, "تم إنشاء الحساب بنجاح")

	_, stderr, err := run(t, "users", "register", "sara", "pw")
	require.ErrorIs(t, err, domain.ErrDuplicateUsername)
	require.Contains(t, stderr, "اسم المستخدم موجود مسبقاً")

	out, _, err = run(t, "users", "list")
	require.NoError(t, err)
	require.Contains(t, out, "sara")

	_, _, err = run(t, "login", "sara", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	out, _, err = run(t, "login", "admin", "admin123")
	require.NoError(t, err)
	require.Contains(t, out, "Route: admin")

	out, _, err = run(t, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "admin")

	_, _, err = run(t, "logout")
	require.NoError(t, err)

	out, _, err = run(t, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Not logged in.")
}

func TestCLI_PasswordFromStdin(t *testing.T) {
	setupEnv(t)
	orig := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdinIsTerminal = orig })

	out, _, err := runWithInput(t, "admin123\n", "login", "admin")
	require.NoError(t, err)
	require.Contains(t, out, "Route: admin")

	_, _, err = runWithInput(t, "", "login", "admin")
	require.ErrorIs(t, err, errNoPassword)
}

func TestCLI_Version(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "Version: dev")
}
