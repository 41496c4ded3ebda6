package authController

import (
	"errors"
	"log"
	"time"

	"ninma/config"
	"ninma/middleware"
	"ninma/models"
	"ninma/utils"
	authValidator "ninma/validators/auth"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct {
	DB *gorm.DB
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db}
}

func (ctrl *AuthController) Signup(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedSignup").(*authValidator.SignupRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	db := ctrl.DB.WithContext(c.UserContext())

	// Check if email already exists
	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", reqData.Email).Count(&existing).Error; err != nil {
		log.Printf("Error checking email: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Erro ao processar sua solicitação!", nil)
	}
	if existing > 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Email já cadastrado!", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Erro ao processar sua solicitação!", nil)
	}

	newUser := models.User{
		Name:        reqData.Name,
		Email:       reqData.Email,
		Password:    string(hashedPassword),
		Role:        models.RoleParticipant,
		Institution: reqData.Institution,
		Course:      reqData.Course,
		Phone:       reqData.Phone,
	}
	if err := db.Create(&newUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Email já cadastrado!", nil)
		}
		log.Printf("Error saving user to database: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Erro ao cadastrar usuário!", nil)
	}

	utils.SendWelcomeEmail(newUser.Email, newUser.Name)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Usuário cadastrado com sucesso.", newUser)
}

func (ctrl *AuthController) Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLogin").(*authValidator.LoginRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	db := ctrl.DB.WithContext(c.UserContext())

	var user models.User
	if err := db.Where("email = ?", reqData.Email).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Credenciais inválidas!", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Credenciais inválidas!", nil)
	}

	// Update last login time
	now := time.Now()
	user.LastLogin = &now
	if err := db.Model(&user).Update("last_login", now).Error; err != nil {
		log.Printf("Error saving last login time: %v", err)
	}

	ip := c.IP()
	if forwarded := c.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		ip = forwarded
	}
	loginTracking := models.LoginTracking{
		UserID:    user.ID,
		IPAddress: ip,
		Device:    c.Get(fiber.HeaderUserAgent),
		Timestamp: now,
	}
	if err := db.Create(&loginTracking).Error; err != nil {
		log.Printf("Error saving login tracking details: %v", err)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Erro ao gerar token", nil)
	}
	middleware.SetSessionCookie(c, token)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login realizado com sucesso.", fiber.Map{
		"user":  user,
		"token": token,
	})
}

func (ctrl *AuthController) Logout(c *fiber.Ctx) error {
	c.ClearCookie(middleware.SessionCookie)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Logout realizado com sucesso.", nil)
}

func (ctrl *AuthController) Me(c *fiber.Ctx) error {
	user, err := ctrl.currentUser(c)
	if user == nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Perfil carregado com sucesso.", user)
}

func (ctrl *AuthController) UpdateProfile(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedProfile").(*authValidator.UpdateProfileRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	user, err := ctrl.currentUser(c)
	if user == nil {
		return err
	}

	updates := map[string]interface{}{}
	setIfPresent(updates, "name", reqData.Name)
	setIfPresent(updates, "institution", reqData.Institution)
	setIfPresent(updates, "course", reqData.Course)
	setIfPresent(updates, "phone", reqData.Phone)
	setIfPresent(updates, "bio", reqData.Bio)
	setIfPresent(updates, "image", reqData.Image)
	if len(updates) == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Nada para atualizar!", nil)
	}

	db := ctrl.DB.WithContext(c.UserContext())
	if err := db.Model(user).Updates(updates).Error; err != nil {
		log.Printf("Error updating profile of %s: %v", user.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Erro ao atualizar perfil!", nil)
	}
	if err := db.First(user, "id = ?", user.ID).Error; err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Perfil atualizado com sucesso.", user)
}

func (ctrl *AuthController) ChangePassword(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedPassword").(*authValidator.ChangePasswordRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Dados inválidos!", nil)
	}
	user, err := ctrl.currentUser(c)
	if user == nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.CurrentPassword)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Senha atual incorreta!", nil)
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.NewPassword), config.AppConfig.SaltRound)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Erro ao processar sua solicitação!", nil)
	}
	if err := ctrl.DB.WithContext(c.UserContext()).Model(user).Update("password", string(hashedPassword)).Error; err != nil {
		log.Printf("Error saving password of %s: %v", user.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Erro ao alterar a senha!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Senha alterada com sucesso.", nil)
}

func (ctrl *AuthController) LoginHistoryList(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUser(c)
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	db := ctrl.DB.WithContext(c.UserContext())
	var loginTracking []models.LoginTracking
	var total int64
	if err := db.Model(&models.LoginTracking{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	if err := db.Where("user_id = ?", userID).
		Order("timestamp DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&loginTracking).Error; err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Histórico de acessos.", fiber.Map{
		"loginTracking": loginTracking,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// currentUser loads the caller. On failure the response is already written.
func (ctrl *AuthController) currentUser(c *fiber.Ctx) (*models.User, error) {
	userID, _ := middleware.CurrentUser(c)
	var user models.User
	if err := ctrl.DB.WithContext(c.UserContext()).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Usuário não encontrado!", nil)
		}
		return nil, middleware.ServiceErrorResponse(c, err)
	}
	return &user, nil
}

func setIfPresent(m map[string]interface{}, col string, v *string) {
	if v != nil {
		m[col] = *v
	}
}
