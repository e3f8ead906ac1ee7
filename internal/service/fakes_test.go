package service

import (
	"context"
	"errors"
	"sync"

	"shop-assistant-be/internal/entity"
	"shop-assistant-be/internal/repository/contract"
	"shop-assistant-be/internal/repository/specification"
	"shop-assistant-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*entity.Conversation
	failAssistant bool
	appends       int
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{conversations: map[uuid.UUID]*entity.Conversation{}}
}

func (r *fakeConversationRepo) Create(ctx context.Context, c *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *c
	stored.Messages = nil
	r.conversations[c.Id] = &stored
	return nil
}

func (r *fakeConversationRepo) FindById(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Messages = append([]entity.Message(nil), c.Messages...)
	return &cp, nil
}

func (r *fakeConversationRepo) AppendAndSave(ctx context.Context, id uuid.UUID, msg entity.Message, analytics *entity.Analytics) (entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAssistant && msg.Role == entity.MessageRoleAssistant {
		return entity.Message{}, errors.New("db write failed")
	}
	c, ok := r.conversations[id]
	if !ok {
		return entity.Message{}, contract.ErrConversationNotFound
	}
	saved, err := c.Append(msg)
	if err != nil {
		return entity.Message{}, err
	}
	if analytics != nil {
		c.Analytics = analytics
	}
	r.appends++
	return saved, nil
}

func (r *fakeConversationRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Conversation, 0, len(r.conversations))
	for _, c := range r.conversations {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeConversationRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.conversations)), nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]*entity.Product
}

func (r *fakeProductRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Product, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			return r.products[byID.ID], nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Product, error) {
	out := make([]*entity.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProductRepo) FindByIds(ctx context.Context, ids []uuid.UUID) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeEmbeddingRepo struct {
	byProduct map[uuid.UUID]*entity.ProductEmbedding
	replaced  int
}

func (r *fakeEmbeddingRepo) FindAllActive(ctx context.Context) ([]*entity.ProductEmbedding, error) {
	return nil, nil
}

func (r *fakeEmbeddingRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ProductEmbedding, error) {
	for _, spec := range specs {
		if s, ok := spec.(specification.ByProductID); ok {
			return r.byProduct[s.ProductID], nil
		}
	}
	return nil, nil
}

func (r *fakeEmbeddingRepo) ReplaceForProduct(ctx context.Context, e *entity.ProductEmbedding) error {
	r.byProduct[e.ProductId] = e
	r.replaced++
	return nil
}

type fakeUnitOfWork struct {
	conversations *fakeConversationRepo
	products      *fakeProductRepo
	embeddings    *fakeEmbeddingRepo
}

func (u *fakeUnitOfWork) Transaction(ctx context.Context, fn func(tx unitofwork.UnitOfWork) error) error {
	return fn(u)
}

func (u *fakeUnitOfWork) ConversationRepository() contract.ConversationRepository {
	return u.conversations
}

func (u *fakeUnitOfWork) ProductRepository() contract.ProductRepository {
	return u.products
}

func (u *fakeUnitOfWork) ProductEmbeddingRepository() contract.ProductEmbeddingRepository {
	return u.embeddings
}

type fakeFactory struct {
	uow *fakeUnitOfWork
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{uow: &fakeUnitOfWork{
		conversations: newFakeConversationRepo(),
		products:      &fakeProductRepo{products: map[uuid.UUID]*entity.Product{}},
		embeddings:    &fakeEmbeddingRepo{byProduct: map[uuid.UUID]*entity.ProductEmbedding{}},
	}}
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}
