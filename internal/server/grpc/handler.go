package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/chatapi"
	"github.com/dmitrijs2005/gophchat/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Ping(ctx context.Context, req *chatapi.Empty) (*chatapi.PingResponse, error) {
	return &chatapi.PingResponse{Status: "OK"}, nil
}

// Auth

func (s *GRPCServer) Register(ctx context.Context, req *chatapi.RegisterRequest) (*chatapi.UserResponse, error) {
	s.logger.Info(ctx, "Registration request")

	u, err := s.users.Register(ctx, req.Email, req.DisplayName, req.Salt, req.Verifier)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.UserResponse{User: *u}, nil
}

func (s *GRPCServer) GetSalt(ctx context.Context, req *chatapi.GetSaltRequest) (*chatapi.GetSaltResponse, error) {
	salt, err := s.users.GetSalt(ctx, req.Email)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.GetSaltResponse{Salt: salt}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *chatapi.LoginRequest) (*chatapi.LoginResponse, error) {
	tokens, u, err := s.users.Login(ctx, req.Email, req.Verifier)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.LoginResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken, User: *u}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *chatapi.RefreshTokenRequest) (*chatapi.RefreshTokenResponse, error) {
	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.RefreshTokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *chatapi.LogoutRequest) (*chatapi.Empty, error) {
	if err := s.users.Logout(ctx, req.RefreshToken); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.Empty{}, nil
}

func (s *GRPCServer) Me(ctx context.Context, req *chatapi.Empty) (*chatapi.UserResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Me(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.UserResponse{User: *u}, nil
}

func (s *GRPCServer) RequestPasswordReset(ctx context.Context, req *chatapi.RequestPasswordResetRequest) (*chatapi.Empty, error) {
	if err := s.users.RequestPasswordReset(ctx, req.Email); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.Empty{}, nil
}

func (s *GRPCServer) ResetPassword(ctx context.Context, req *chatapi.ResetPasswordRequest) (*chatapi.Empty, error) {
	if err := s.users.ResetPassword(ctx, req.Token, req.Salt, req.Verifier); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.Empty{}, nil
}

// Folders

func (s *GRPCServer) ListFolders(ctx context.Context, req *chatapi.Empty) (*chatapi.ListFoldersResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	folders, err := s.chat.ListFolders(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.ListFoldersResponse{Folders: folders}, nil
}

func (s *GRPCServer) CreateFolder(ctx context.Context, req *chatapi.CreateFolderRequest) (*chatapi.FolderResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	f, err := s.chat.CreateFolder(ctx, userID, req.Name)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.FolderResponse{Folder: *f}, nil
}

func (s *GRPCServer) RenameFolder(ctx context.Context, req *chatapi.RenameFolderRequest) (*chatapi.FolderResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	f, err := s.chat.RenameFolder(ctx, userID, req.FolderID, req.Name)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.FolderResponse{Folder: *f}, nil
}

func (s *GRPCServer) DeleteFolder(ctx context.Context, req *chatapi.DeleteFolderRequest) (*chatapi.DeleteFolderResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.chat.DeleteFolder(ctx, userID, req.FolderID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.DeleteFolderResponse{DeletedConversationIDs: ids}, nil
}

// Conversations

func (s *GRPCServer) ListConversations(ctx context.Context, req *chatapi.ListConversationsRequest) (*chatapi.ListConversationsResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	convs, err := s.chat.ListConversations(ctx, userID, req.FolderID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.ListConversationsResponse{Conversations: convs}, nil
}

func (s *GRPCServer) CreateConversation(ctx context.Context, req *chatapi.CreateConversationRequest) (*chatapi.ConversationResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.chat.CreateConversation(ctx, userID, req.FolderID, req.Title)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.ConversationResponse{Conversation: *c}, nil
}

func (s *GRPCServer) UpdateConversation(ctx context.Context, req *chatapi.UpdateConversationRequest) (*chatapi.ConversationResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.chat.UpdateConversation(ctx, userID, req.ConversationID, req.Title, req.FolderID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.ConversationResponse{Conversation: *c}, nil
}

func (s *GRPCServer) DeleteConversation(ctx context.Context, req *chatapi.DeleteConversationRequest) (*chatapi.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.chat.DeleteConversation(ctx, userID, req.ConversationID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.Empty{}, nil
}

// Messages

func (s *GRPCServer) ListMessages(ctx context.Context, req *chatapi.ListMessagesRequest) (*chatapi.ListMessagesResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := s.chat.ListMessages(ctx, userID, req.ConversationID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.ListMessagesResponse{Messages: msgs}, nil
}

func (s *GRPCServer) AddMessage(ctx context.Context, req *chatapi.AddMessageRequest) (*chatapi.MessageResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	content, err := req.Content.Unwrap()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	files := make([]services.FileSpec, len(req.Files))
	for i, f := range req.Files {
		files[i] = services.FileSpec{FileName: f.FileName, ContentType: f.ContentType, Size: f.Size}
	}

	added, err := s.chat.AddMessage(ctx, userID, req.ConversationID, req.Role, content, files)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return messageResponse(added), nil
}

func (s *GRPCServer) MarkAttachmentUploaded(ctx context.Context, req *chatapi.MarkAttachmentUploadedRequest) (*chatapi.AttachmentResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.files.MarkUploaded(ctx, userID, req.AttachmentID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.AttachmentResponse{Attachment: *a}, nil
}

func (s *GRPCServer) GenerateReply(ctx context.Context, req *chatapi.GenerateReplyRequest) (*chatapi.MessageResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	added, err := s.chat.GenerateReply(ctx, userID, req.ConversationID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return messageResponse(added), nil
}

// Files

func (s *GRPCServer) ListConversationFiles(ctx context.Context, req *chatapi.ListConversationFilesRequest) (*chatapi.ListConversationFilesResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	files, err := s.files.ListConversationFiles(ctx, userID, req.ConversationID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &chatapi.ListConversationFilesResponse{Files: files}, nil
}

func messageResponse(added *services.AddedMessage) *chatapi.MessageResponse {
	uploads := make([]chatapi.UploadTask, len(added.Uploads))
	for i, u := range added.Uploads {
		uploads[i] = chatapi.UploadTask{
			AttachmentID: u.AttachmentID,
			FileName:     u.FileName,
			ContentType:  u.ContentType,
			UploadURL:    u.UploadURL,
		}
	}
	return &chatapi.MessageResponse{Message: added.Message, Conversation: added.Conversation, Uploads: uploads}
}
