package repository

import (
	"context"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockRoomRepository struct {
	mock.Mock
}

func NewMockRoomRepository() *MockRoomRepository {
	return &MockRoomRepository{}
}

func (m *MockRoomRepository) Create(ctx context.Context, room domain.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	args := m.Called(ctx, id)
	room, _ := args.Get(0).(*domain.Room)
	return room, args.Error(1)
}

func (m *MockRoomRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	args := m.Called(ctx, id)
	room, _ := args.Get(0).(*domain.Room)
	return room, args.Error(1)
}

func (m *MockRoomRepository) ReserveQuota(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoomRepository) ReleaseQuota(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoomRepository) ConsumeQuota(ctx context.Context, id uuid.UUID, debit, credit int64) (int64, error) {
	args := m.Called(ctx, id, debit, credit)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoomRepository) IncrementEntries(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	args := m.Called(ctx, id)
	room, _ := args.Get(0).(*domain.Room)
	return room, args.Error(1)
}

func (m *MockRoomRepository) SetCleanupMarkers(ctx context.Context, id uuid.UUID, emptySince, cleanupAfter time.Time) error {
	args := m.Called(ctx, id, emptySince, cleanupAfter)
	return args.Error(0)
}

func (m *MockRoomRepository) ClearCleanupMarkers(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRoomRepository) FindCleanupCandidates(ctx context.Context, now time.Time, limit int) ([]domain.Room, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]domain.Room), args.Error(1)
}

func (m *MockRoomRepository) FindFullUnbounded(ctx context.Context, limit int) ([]domain.Room, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.Room), args.Error(1)
}

func (m *MockRoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockReservationRepository struct {
	mock.Mock
}

func NewMockReservationRepository() *MockReservationRepository {
	return &MockReservationRepository{}
}

func (m *MockReservationRepository) Create(ctx context.Context, reservation domain.UploadReservation) error {
	args := m.Called(ctx, reservation)
	return args.Error(0)
}

func (m *MockReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadReservation, error) {
	args := m.Called(ctx, id)
	reservation, _ := args.Get(0).(*domain.UploadReservation)
	return reservation, args.Error(1)
}

func (m *MockReservationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.UploadReservation, error) {
	args := m.Called(ctx, id)
	reservation, _ := args.Get(0).(*domain.UploadReservation)
	return reservation, args.Error(1)
}

func (m *MockReservationRepository) FindLatestByCredential(ctx context.Context, roomID uuid.UUID, credentialID string) (*domain.UploadReservation, error) {
	args := m.Called(ctx, roomID, credentialID)
	reservation, _ := args.Get(0).(*domain.UploadReservation)
	return reservation, args.Error(1)
}

func (m *MockReservationRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]domain.UploadReservation, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]domain.UploadReservation), args.Error(1)
}

func (m *MockReservationRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]domain.UploadReservation, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).([]domain.UploadReservation), args.Error(1)
}

func (m *MockReservationRepository) DeleteExpiredByRoom(ctx context.Context, roomID uuid.UUID, now time.Time) ([]domain.UploadReservation, error) {
	args := m.Called(ctx, roomID, now)
	return args.Get(0).([]domain.UploadReservation), args.Error(1)
}

func (m *MockReservationRepository) DeleteIfExpired(ctx context.Context, id uuid.UUID, now time.Time) (*domain.UploadReservation, error) {
	args := m.Called(ctx, id, now)
	reservation, _ := args.Get(0).(*domain.UploadReservation)
	return reservation, args.Error(1)
}

func (m *MockReservationRepository) MarkConsumed(ctx context.Context, id uuid.UUID, consumedAt time.Time, manifest domain.Manifest) error {
	args := m.Called(ctx, id, consumedAt, manifest)
	return args.Error(0)
}

func (m *MockReservationRepository) IncrementUploadedChunks(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockReservationRepository) TryBeginMerge(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReservationRepository) SetMergeState(ctx context.Context, id uuid.UUID, state domain.MergeState) error {
	args := m.Called(ctx, id, state)
	return args.Error(0)
}

type MockChunkRepository struct {
	mock.Mock
}

func NewMockChunkRepository() *MockChunkRepository {
	return &MockChunkRepository{}
}

func (m *MockChunkRepository) Create(ctx context.Context, chunk domain.ChunkRecord) error {
	args := m.Called(ctx, chunk)
	return args.Error(0)
}

func (m *MockChunkRepository) ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]domain.ChunkRecord, error) {
	args := m.Called(ctx, reservationID)
	return args.Get(0).([]domain.ChunkRecord), args.Error(1)
}

func (m *MockChunkRepository) DeleteByReservation(ctx context.Context, reservationID uuid.UUID) error {
	args := m.Called(ctx, reservationID)
	return args.Error(0)
}

type MockContentRepository struct {
	mock.Mock
}

func NewMockContentRepository() *MockContentRepository {
	return &MockContentRepository{}
}

func (m *MockContentRepository) Create(ctx context.Context, content domain.ContentRecord) error {
	args := m.Called(ctx, content)
	return args.Error(0)
}

func (m *MockContentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ContentRecord, error) {
	args := m.Called(ctx, id)
	content, _ := args.Get(0).(*domain.ContentRecord)
	return content, args.Error(1)
}

func (m *MockContentRepository) ExistsByName(ctx context.Context, roomID uuid.UUID, name string) (bool, error) {
	args := m.Called(ctx, roomID, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockContentRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]domain.ContentRecord, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).([]domain.ContentRecord), args.Error(1)
}

func (m *MockContentRepository) DeleteByRoom(ctx context.Context, roomID uuid.UUID) (int64, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(int64), args.Error(1)
}

type MockCredentialRepository struct {
	mock.Mock
}

func NewMockCredentialRepository() *MockCredentialRepository {
	return &MockCredentialRepository{}
}

func (m *MockCredentialRepository) Create(ctx context.Context, credential domain.CredentialRecord) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

func (m *MockCredentialRepository) Revoke(ctx context.Context, jti string) error {
	args := m.Called(ctx, jti)
	return args.Error(0)
}

func (m *MockCredentialRepository) MaxActiveExpiry(ctx context.Context, roomID uuid.UUID) (*time.Time, error) {
	args := m.Called(ctx, roomID)
	expiry, _ := args.Get(0).(*time.Time)
	return expiry, args.Error(1)
}

func (m *MockCredentialRepository) DeleteByRoom(ctx context.Context, roomID uuid.UUID) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

type MockUnitOfWork struct {
	mock.Mock
	roomRepo        *MockRoomRepository
	reservationRepo *MockReservationRepository
	chunkRepo       *MockChunkRepository
	contentRepo     *MockContentRepository
	credentialRepo  *MockCredentialRepository
}

func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		roomRepo:        &MockRoomRepository{},
		reservationRepo: &MockReservationRepository{},
		chunkRepo:       &MockChunkRepository{},
		contentRepo:     &MockContentRepository{},
		credentialRepo:  &MockCredentialRepository{},
	}
}

func (m *MockUnitOfWork) RoomRepo() port.RoomRepository {
	return m.roomRepo
}

func (m *MockUnitOfWork) ReservationRepo() port.ReservationRepository {
	return m.reservationRepo
}

func (m *MockUnitOfWork) ChunkRepo() port.ChunkRepository {
	return m.chunkRepo
}

func (m *MockUnitOfWork) ContentRepo() port.ContentRepository {
	return m.contentRepo
}

func (m *MockUnitOfWork) CredentialRepo() port.CredentialRepository {
	return m.credentialRepo
}

func (m *MockUnitOfWork) Execute(ctx context.Context, fn func(uow port.UnitOfWork) error) error {
	args := m.Called(ctx, fn)

	if err := fn(m); err != nil {
		return err
	}

	return args.Error(0)
}

func (m *MockUnitOfWork) GetRoomRepoMock() *MockRoomRepository {
	return m.roomRepo
}

func (m *MockUnitOfWork) GetReservationRepoMock() *MockReservationRepository {
	return m.reservationRepo
}

func (m *MockUnitOfWork) GetChunkRepoMock() *MockChunkRepository {
	return m.chunkRepo
}

func (m *MockUnitOfWork) GetContentRepoMock() *MockContentRepository {
	return m.contentRepo
}

func (m *MockUnitOfWork) GetCredentialRepoMock() *MockCredentialRepository {
	return m.credentialRepo
}
