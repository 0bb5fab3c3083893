package gift

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pair_chat_server/internal/dao/mysql/repository"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/internal/infrastructure/mq"
	"pair_chat_server/internal/model"
	"pair_chat_server/internal/service/chat"
	"pair_chat_server/pkg/constants"
	"pair_chat_server/pkg/errorx"
)

type settlement struct {
	requestId   string // 直接赠送时为空
	sessionId   string
	senderId    string
	senderRole  string
	recipientId string
	gift        *model.Gift
	at          time.Time
}

// settle 余额校验通过才会产生流水；任一步失败整个事务回滚，请求保持 pending
func (s *giftService) settle(ctx context.Context, st settlement) (*respond.GiftSettleRespond, error) {
	recipientRole := constants.RoleModel
	if st.senderRole == constants.RoleModel {
		recipientRole = constants.RoleClient
	}
	info := giftInfo(st.gift)
	txn := &model.GiftTransaction{
		Uuid:        uuid.NewString(),
		SessionId:   st.sessionId,
		SenderId:    st.senderId,
		RecipientId: st.recipientId,
		GiftId:      st.gift.Uuid,
		Amount:      st.gift.Price,
		CreatedAt:   st.at,
	}
	if st.requestId != "" {
		rid := st.requestId
		txn.GiftRequestId = &rid
	}

	var sent, received *model.Message
	err := s.repos.WithContext(ctx).Transaction(func(tx *repository.Repositories) error {
		if st.requestId != "" {
			ok, err := tx.GiftRequest.Transition(st.requestId, model.GiftRequestPending, model.GiftRequestAccepted, "", st.at)
			if err != nil {
				return err
			}
			if !ok {
				return errorx.ErrInvalidRequest
			}
		}
		if err := tx.User.Debit(st.senderId, txn.Amount); err != nil {
			return err
		}
		if err := tx.User.Credit(st.recipientId, txn.Amount); err != nil {
			return err
		}
		sender, err := tx.User.FindByUuid(st.senderId)
		if err != nil {
			return err
		}
		recipient, err := tx.User.FindByUuid(st.recipientId)
		if err != nil {
			return err
		}
		txn.SenderBalanceAfter = sender.Balance
		txn.RecipientBalanceAfter = recipient.Balance
		if err := tx.GiftTx.Create(txn); err != nil {
			return err
		}

		sent, err = chat.NewMessage(model.RoleScope(st.sessionId, st.senderRole), st.senderId, "", model.GiftSentPayload{
			GiftInfo:      info,
			TransactionId: txn.Uuid,
			RecipientId:   st.recipientId,
			BalanceAfter:  sender.Balance,
		}, st.at)
		if err != nil {
			return err
		}
		received, err = chat.NewMessage(model.RoleScope(st.sessionId, recipientRole), st.senderId, "", model.GiftReceivedPayload{
			GiftInfo:      info,
			TransactionId: txn.Uuid,
			SenderId:      st.senderId,
			BalanceAfter:  recipient.Balance,
		}, st.at)
		if err != nil {
			return err
		}
		if err := tx.Message.Create(sent); err != nil {
			return err
		}
		return tx.Message.Create(received)
	})
	if err != nil {
		switch errorx.GetCode(err) {
		case errorx.CodeInsufficientBalance:
			zap.L().Info("余额不足，礼物未结算",
				zap.String("sender", st.senderId),
				zap.String("gift_id", st.gift.Uuid),
				zap.Int64("price", st.gift.Price),
			)
			return nil, errorx.ErrInsufficientBalance
		case errorx.CodeInvalidRequest:
			return nil, errorx.ErrInvalidRequest
		case errorx.CodeDuplicateRequest:
			// 同一请求的第二笔流水被唯一索引拦下
			return nil, errorx.ErrInvalidRequest
		}
		zap.L().Error("礼物结算失败", zap.String("session_id", st.sessionId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	ev := mq.NewEvent(constants.EventGiftSettled, st.sessionId, st.senderId, map[string]any{
		"transactionId": txn.Uuid,
		"requestId":     st.requestId,
		"giftId":        txn.GiftId,
		"amount":        txn.Amount,
		"recipientId":   txn.RecipientId,
	})
	if err := s.events.Publish(ctx, ev); err != nil {
		zap.L().Warn("发布礼物结算事件失败", zap.String("transaction_id", txn.Uuid), zap.Error(err))
	}

	zap.L().Info("礼物已结算",
		zap.String("transaction_id", txn.Uuid),
		zap.String("sender", st.senderId),
		zap.String("recipient", st.recipientId),
		zap.Int64("amount", txn.Amount),
	)
	return &respond.GiftSettleRespond{
		Success:          true,
		TransactionId:    txn.Uuid,
		RequestId:        st.requestId,
		Balance:          txn.SenderBalanceAfter,
		SenderBalance:    txn.SenderBalanceAfter,
		RecipientBalance: txn.RecipientBalanceAfter,
		Messages:         []respond.MessageItem{chat.ToItem(*sent), chat.ToItem(*received)},
	}, nil
}
