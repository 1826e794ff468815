package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const driveAppDataFolder = "appDataFolder"

type driveConnector func(ctx context.Context, account string) (*drive.Service, error)

// DriveStore keeps documents in the Google Drive application data folder of
// each account. The service account impersonates the account, so it needs
// domain-wide delegation for the drive.appdata scope.
type DriveStore struct {
	mu       sync.Mutex
	services map[string]*drive.Service
	connect  driveConnector
}

func NewDriveStore(credentialsFile string, opts ...option.ClientOption) (*DriveStore, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read Google credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, drive.DriveAppdataScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Google credentials: %w", err)
	}
	return newDriveStore(func(ctx context.Context, account string) (*drive.Service, error) {
		c := *conf
		c.Subject = account
		// the token source outlives the request that first needed it
		client := c.Client(context.Background())
		return drive.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)...)
	}), nil
}

func newDriveStore(connect driveConnector) *DriveStore {
	return &DriveStore{
		services: make(map[string]*drive.Service),
		connect:  connect,
	}
}

func (s *DriveStore) service(ctx context.Context, account string) (*drive.Service, error) {
	if account == "" {
		return nil, fmt.Errorf("drive account is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if svc, ok := s.services[account]; ok {
		return svc, nil
	}
	svc, err := s.connect(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	s.services[account] = svc
	return svc, nil
}

func (s *DriveStore) find(ctx context.Context, svc *drive.Service, name string) (*drive.File, error) {
	list, err := svc.Files.List().
		Spaces(driveAppDataFolder).
		Fields("nextPageToken, files(id, name)").
		Q(driveNameQuery(name)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", name, err)
	}
	if len(list.Files) == 0 {
		return nil, nil
	}
	return list.Files[0], nil
}

func (s *DriveStore) Save(ctx context.Context, account string, name string, data []byte) error {
	svc, err := s.service(ctx, account)
	if err != nil {
		return err
	}
	existing, err := s.find(ctx, svc, name)
	if err != nil {
		return err
	}
	media := bytes.NewReader(data)
	if existing != nil {
		_, err = svc.Files.Update(existing.Id, &drive.File{Name: name}).
			Media(media, googleapi.ContentType("application/json")).
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to update %s: %w", name, err)
		}
		logrus.Debugf("%s updated in drive: %s", name, existing.Id)
		return nil
	}
	file, err := svc.Files.Create(&drive.File{Name: name, Parents: []string{driveAppDataFolder}}).
		Media(media, googleapi.ContentType("application/json")).
		Fields("id, parents").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	logrus.Debugf("%s saved to drive: %s", name, file.Id)
	return nil
}

func (s *DriveStore) Load(ctx context.Context, account string, name string) ([]byte, error) {
	svc, err := s.service(ctx, account)
	if err != nil {
		return nil, err
	}
	file, err := s.find(ctx, svc, name)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, ErrNotExist
	}
	resp, err := svc.Files.Get(file.Id).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", name, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func driveNameQuery(name string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return fmt.Sprintf("name='%s'", r.Replace(name))
}
