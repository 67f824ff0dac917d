package generator

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	baseDirName     = "BASE_DIR"
	flatSettings    = "settings.py"
	settingsPackage = "settings"
)

// SettingsLayout names every path the split touches for one project.
type SettingsLayout struct {
	Root        string
	ProjectName string
}

func (l SettingsLayout) ProjectDir() string { return filepath.Join(l.Root, l.ProjectName) }
func (l SettingsLayout) FlatFile() string { return filepath.Join(l.ProjectDir(), flatSettings) }
func (l SettingsLayout) PackageDir() string { return filepath.Join(l.ProjectDir(), settingsPackage) }
func (l SettingsLayout) Module(n string) string { return filepath.Join(l.PackageDir(), n+".py") }
func (l SettingsLayout) GitIgnore() string { return filepath.Join(l.Root, ".gitignore") }

// LocalIgnoreEntry is the project-relative path appended to .gitignore.
func (l SettingsLayout) LocalIgnoreEntry() string {
	return "/" + l.ProjectName + "/" + settingsPackage + "/local.py"
}

// PackageExists reports whether the split already ran.
func (l SettingsLayout) PackageExists() bool {
	_, err := os.Stat(l.PackageDir())
	return err == nil
}

// SourceError is returned by CreatePackage when the flat settings file could
// not be read. Everything CreatePackage created has been removed when it is
// returned.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// SplitSettings turns the flat settings.py into a settings package. Later
// stages only run if the package was created; a failed creation leaves no
// package directory behind.
func SplitSettings(l SettingsLayout) error {
	if err := CreatePackage(l); err != nil {
		return err
	}
	if err := WriteEnvironmentModules(l); err != nil {
		return err
	}
	if err := IgnoreLocalModule(l); err != nil {
		return err
	}
	return RemoveFlatSettings(l)
}

// CreatePackage creates settings/, copies __init__.py from the embedded
// template and derives base.py from the flat settings file. Any failure
// removes what this call created: the settings directory, or the whole
// project directory when it did not exist before.
func CreatePackage(l SettingsLayout) (err error) {
	created := l.PackageDir()
	if _, statErr := os.Stat(l.ProjectDir()); errors.Is(statErr, fs.ErrNotExist) {
		created = l.ProjectDir()
	}
	if err := os.MkdirAll(l.PackageDir(), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", l.PackageDir(), err)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(created)
		}
	}()

	if err := os.WriteFile(l.Module("__init__"), []byte(SettingsInitTemplate()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", l.Module("__init__"), err)
	}

	src, err := os.Open(l.FlatFile())
	if err != nil {
		return &SourceError{Path: l.FlatFile(), Err: err}
	}
	defer src.Close()

	dst, err := os.Create(l.Module("base"))
	if err != nil {
		return fmt.Errorf("create %s: %w", l.Module("base"), err)
	}
	if err := DeriveBaseSettings(src, dst); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// DeriveBaseSettings copies r to w, rewriting every BASE_DIR assignment so it
// still resolves to the project root from one directory deeper.
func DeriveBaseSettings(r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)
	writer := bufio.NewWriter(w)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if _, werr := writer.WriteString(rewriteBaseDirLine(line)); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	return writer.Flush()
}

func rewriteBaseDirLine(line string) string {
	name, value, ok := ClassifyLine(line)
	if !ok || name != baseDirName {
		return line
	}
	return baseDirName + " = " + NestBaseDir(value) + "\n"
}

// NestBaseDir adds one parent level to a BASE_DIR expression. pathlib
// expressions get another .parent; anything else is wrapped in
// os.path.dirname, which turns Django's classic
// os.path.dirname(os.path.dirname(os.path.abspath(__file__))) into the
// three-level form.
func NestBaseDir(expr string) string {
	expr = strings.TrimSpace(expr)
	comment := ""
	if i := strings.Index(expr, "  #"); i >= 0 {
		expr, comment = strings.TrimSpace(expr[:i]), expr[i:]
	}
	if strings.HasPrefix(expr, "Path(") {
		return expr + ".parent" + comment
	}
	return "os.path.dirname(" + expr + ")" + comment
}

// WriteEnvironmentModules copies base.py to production.py and local.py.
func WriteEnvironmentModules(l SettingsLayout) error {
	base, err := os.ReadFile(l.Module("base"))
	if err != nil {
		return err
	}
	for _, name := range []string{"production", "local"} {
		if err := os.WriteFile(l.Module(name), base, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", l.Module(name), err)
		}
	}
	return nil
}

// IgnoreLocalModule appends the local module to the project's .gitignore,
// creating the file if needed.
func IgnoreLocalModule(l SettingsLayout) error {
	f, err := os.OpenFile(l.GitIgnore(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(l.LocalIgnoreEntry() + "\n"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// RemoveFlatSettings deletes the superseded settings.py if it is still there.
func RemoveFlatSettings(l SettingsLayout) error {
	err := os.Remove(l.FlatFile())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
