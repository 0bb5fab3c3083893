package gift

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"pair_chat_server/internal/dao/mysql/repository"
	myredis "pair_chat_server/internal/dao/redis"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/internal/model"
	"pair_chat_server/pkg/errorx"
)

const catalogCacheKey = "gift:catalog"

// defaultGifts 空库启动时写入的目录
var defaultGifts = []model.Gift{
	{Uuid: "rose", Name: "玫瑰", Price: 10, ImageRef: "gifts/rose.png", Enabled: true},
	{Uuid: "heart", Name: "爱心", Price: 50, ImageRef: "gifts/heart.png", Enabled: true},
	{Uuid: "diamond", Name: "钻石", Price: 200, ImageRef: "gifts/diamond.png", Enabled: true},
	{Uuid: "crown", Name: "皇冠", Price: 1000, ImageRef: "gifts/crown.png", Enabled: true},
}

// catalog 礼物目录读穿缓存，并发未命中合并为一次查库
type catalog struct {
	repos *repository.Repositories
	cache myredis.AsyncCacheService
	ttl   time.Duration
	group singleflight.Group
}

func toGiftItem(g model.Gift) respond.GiftItem {
	return respond.GiftItem{GiftId: g.Uuid, Name: g.Name, Price: g.Price, ImageRef: g.ImageRef}
}

func (c *catalog) list(ctx context.Context) ([]respond.GiftItem, error) {
	if cached, err := c.cache.Get(ctx, catalogCacheKey); err != nil {
		zap.L().Warn("读取礼物目录缓存失败", zap.Error(err))
	} else if cached != "" {
		var items []respond.GiftItem
		if err := json.Unmarshal([]byte(cached), &items); err == nil {
			return items, nil
		}
		zap.L().Warn("礼物目录缓存损坏，回源")
	}

	v, err, _ := c.group.Do(catalogCacheKey, func() (any, error) {
		gifts, err := c.repos.WithContext(ctx).Gift.FindEnabled()
		if err != nil {
			return nil, err
		}
		items := make([]respond.GiftItem, 0, len(gifts))
		for _, g := range gifts {
			items = append(items, toGiftItem(g))
		}
		if raw, err := json.Marshal(items); err == nil {
			c.cache.SubmitTask(func() {
				if err := c.cache.Set(context.Background(), catalogCacheKey, string(raw), c.ttl); err != nil {
					zap.L().Warn("写入礼物目录缓存失败", zap.Error(err))
				}
			})
		}
		return items, nil
	})
	if err != nil {
		zap.L().Error("查询礼物目录失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	return v.([]respond.GiftItem), nil
}

func (c *catalog) invalidate(ctx context.Context) {
	if err := c.cache.Delete(ctx, catalogCacheKey); err != nil {
		zap.L().Warn("清除礼物目录缓存失败", zap.Error(err))
	}
}

// seed 目录为空时写入默认礼物
func (c *catalog) seed(ctx context.Context) error {
	repos := c.repos.WithContext(ctx)
	gifts, err := repos.Gift.FindEnabled()
	if err != nil {
		return err
	}
	if len(gifts) > 0 {
		return nil
	}
	for i := range defaultGifts {
		g := defaultGifts[i]
		if err := repos.Gift.Create(&g); err != nil && errorx.GetCode(err) != errorx.CodeDuplicateRequest {
			return err
		}
	}
	c.invalidate(ctx)
	zap.L().Info("已写入默认礼物目录", zap.Int("count", len(defaultGifts)))
	return nil
}
