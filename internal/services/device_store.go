// internal/services/device_store.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/distrokey/distrokey-backend/internal/config"
	"github.com/distrokey/distrokey-backend/internal/models"
)

// DeviceStoreService writes device-control records to the secondary S3
// store. These writes sit outside the primary database transaction; a
// failure here leaves committed primary state that operators reconcile,
// it is never rolled back.
type DeviceStoreService struct {
	s3Client *s3.S3
	config   *config.Config
}

func NewDeviceStoreService(config *config.Config) (*DeviceStoreService, error) {
	if config.DeviceStore.AccessKeyID == "" {
		// Return service without S3 for local development
		return &DeviceStoreService{config: config}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.DeviceStore.Region),
		Credentials: credentials.NewStaticCredentials(
			config.DeviceStore.AccessKeyID,
			config.DeviceStore.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &DeviceStoreService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// PutDeviceRecord writes one control record as JSON under the configured
// prefix.
func (s *DeviceStoreService) PutDeviceRecord(record *models.DeviceRecord) error {
	if s.s3Client == nil {
		// Local mode: nothing to write to
		return nil
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal device record: %w", err)
	}

	key := fmt.Sprintf("%s/%s.json", s.config.DeviceStore.Prefix, record.ID)

	_, err = s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.config.DeviceStore.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to write device record %s: %w", record.ID, err)
	}

	return nil
}

// GetDeviceRecord fetches a control record for reconciliation tooling.
func (s *DeviceStoreService) GetDeviceRecord(id string) (*models.DeviceRecord, error) {
	if s.s3Client == nil {
		return nil, fmt.Errorf("device store is not configured")
	}

	key := fmt.Sprintf("%s/%s.json", s.config.DeviceStore.Prefix, id)

	out, err := s.s3Client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.config.DeviceStore.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read device record %s: %w", id, err)
	}
	defer out.Body.Close()

	var record models.DeviceRecord
	if err := json.NewDecoder(out.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode device record %s: %w", id, err)
	}

	return &record, nil
}
