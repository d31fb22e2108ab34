package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/internal/service"
)

type fakeUserAdmin struct {
	created   service.CreateUserRequest
	resetFor  string
	resetWith string
	err       error
}

func (f *fakeUserAdmin) CreateSuperAdmin(_ context.Context, req service.CreateUserRequest) (*models.User, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: "u-1", Email: req.Email}, nil
}

func (f *fakeUserAdmin) ResetPassword(_ context.Context, email, password string) error {
	f.resetFor = email
	f.resetWith = password
	return f.err
}

func passwords(values ...string) func(int) ([]byte, error) {
	i := 0
	return func(int) ([]byte, error) {
		if i >= len(values) {
			return nil, errors.New("no more input")
		}
		v := values[i]
		i++
		return []byte(v), nil
	}
}

func TestCommandLine(t *testing.T) {
	origRead, origOut := readPasswordFunc, stdout
	t.Cleanup(func() {
		readPasswordFunc = origRead
		stdout = origOut
	})

	type cliTest struct {
		name       string
		args       []string
		input      []string
		svcErr     error
		migrateErr error
		wantErr    error
		wantErrStr string
		extra      func(t *testing.T, users *fakeUserAdmin, migrated bool, out string)
	}

	tests := []cliTest{
		{name: "no command", args: []string{"admin"}, wantErr: errHelp},
		{name: "help", args: []string{"admin", "help"}, wantErr: errHelp},
		{name: "unknown command", args: []string{"admin", "drop"}, wantErrStr: `unknown command "drop"`},
		{
			name:       "create superadmin missing flags",
			args:       []string{"admin", "create-superadmin", "-email", "root@fundalink.edu.co"},
			wantErrStr: "-email, -nombre and -apellido are required",
		},
		{
			name:       "create superadmin password mismatch",
			args:       []string{"admin", "create-superadmin", "-email", "root@fundalink.edu.co", "-nombre", "Ana", "-apellido", "Ruiz"},
			input:      []string{"secreto1", "secreto2"},
			wantErrStr: "passwords do not match",
		},
		{
			name:  "create superadmin",
			args:  []string{"admin", "create-superadmin", "-email", "root@fundalink.edu.co", "-nombre", "Ana", "-apellido", "Ruiz"},
			input: []string{"secreto1", "secreto1"},
			extra: func(t *testing.T, users *fakeUserAdmin, _ bool, out string) {
				assert.Equal(t, "Ana", users.created.FirstName)
				assert.Equal(t, "Ruiz", users.created.LastName)
				assert.Equal(t, "secreto1", users.created.Password)
				assert.Contains(t, out, "Superadmin root@fundalink.edu.co creado (u-1)")
			},
		},
		{
			name:       "create superadmin service error",
			args:       []string{"admin", "create-superadmin", "-email", "root@fundalink.edu.co", "-nombre", "Ana", "-apellido", "Ruiz"},
			input:      []string{"secreto1", "secreto1"},
			svcErr:     errors.New("El email ya está registrado"),
			wantErrStr: "create superadmin: El email ya está registrado",
		},
		{name: "reset password missing email", args: []string{"admin", "reset-password"}, wantErrStr: "-email is required"},
		{
			name:       "reset password empty",
			args:       []string{"admin", "reset-password", "-email", "editor@fundalink.edu.co"},
			input:      []string{" ", " "},
			wantErrStr: "password cannot be empty",
		},
		{
			name:  "reset password",
			args:  []string{"admin", "reset-password", "-email", "editor@fundalink.edu.co"},
			input: []string{"nuevaClave", "nuevaClave"},
			extra: func(t *testing.T, users *fakeUserAdmin, _ bool, _ string) {
				assert.Equal(t, "editor@fundalink.edu.co", users.resetFor)
				assert.Equal(t, "nuevaClave", users.resetWith)
			},
		},
		{
			name: "migrate",
			args: []string{"admin", "migrate"},
			extra: func(t *testing.T, _ *fakeUserAdmin, migrated bool, out string) {
				assert.True(t, migrated)
				assert.Contains(t, out, "Migraciones aplicadas")
			},
		},
		{name: "migrate failure", args: []string{"admin", "migrate"}, migrateErr: errors.New("dirty"), wantErrStr: "migrate: dirty"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			stdout = &out
			readPasswordFunc = passwords(tc.input...)

			users := &fakeUserAdmin{err: tc.svcErr}
			migrated := false
			cli := &commandLine{
				users: users,
				migrate: func(context.Context) error {
					migrated = true
					return tc.migrateErr
				},
				logger: zap.NewNop(),
			}

			err := cli.run(context.Background(), tc.args)
			switch {
			case tc.wantErr != nil:
				require.ErrorIs(t, err, tc.wantErr)
			case tc.wantErrStr != "":
				require.EqualError(t, err, tc.wantErrStr)
			default:
				require.NoError(t, err)
			}
			if tc.extra != nil {
				tc.extra(t, users, migrated, out.String())
			}
		})
	}
}
