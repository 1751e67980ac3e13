package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/onboarding-backend/models"
	"github.com/vnkhanh/onboarding-backend/utils"
)

const (
	SeedAdminEmail    = "admin@vivo.com.br"
	SeedAdminPassword = "Admin@123"
	SeedManagerEmail  = "gestor@vivo.com.br"
	SeedManagerPass   = "Gestor@123"
	SeedMemberPass    = "Senha@123"
)

var seedProfiles = []models.Profile{
	{Name: "Administrador", Description: "Acesso total ao sistema", Role: models.RoleAdmin},
	{Name: "Gestão", Description: "Gerencia equipes e visualiza dashboards", Role: models.RoleManager},
	{Name: "Desenvolvimento", Description: "Equipe de desenvolvimento de software", Role: models.RoleMember},
	{Name: "Infraestrutura", Description: "Equipe de infraestrutura, DevOps e Cloud", Role: models.RoleMember},
	{Name: "QA", Description: "Equipe de qualidade e testes", Role: models.RoleMember},
	{Name: "Produto", Description: "Equipe de produto e arquitetura", Role: models.RoleMember},
	{Name: "Dados", Description: "Equipe de dados, BI e analytics", Role: models.RoleMember},
	{Name: "Design", Description: "Equipe de UX/UI e design", Role: models.RoleMember},
}

type seedMember struct {
	email, name, department, jobTitle, profile string
}

var seedMembers = []seedMember{
	{"joao.silva@vivo.com.br", "João Silva", "Desenvolvimento", "Desenvolvedor Backend Senior", "Desenvolvimento"},
	{"carlos.santos@vivo.com.br", "Carlos Santos", "Desenvolvimento", "Desenvolvedor Frontend Senior", "Desenvolvimento"},
	{"ana.costa@vivo.com.br", "Ana Costa", "Desenvolvimento", "Desenvolvedora Full Stack", "Desenvolvimento"},
	{"roberto.lima@vivo.com.br", "Roberto Lima", "DevOps", "Engenheiro DevOps", "Infraestrutura"},
	{"fernanda.reis@vivo.com.br", "Fernanda Reis", "Infraestrutura", "Administradora de Sistemas", "Infraestrutura"},
	{"juliana.campos@vivo.com.br", "Juliana Campos", "QA", "Analista de Qualidade", "QA"},
	{"maria.oliveira@vivo.com.br", "Maria Oliveira", "Dados", "Analista de Dados Senior", "Dados"},
	{"paula.nunes@vivo.com.br", "Paula Nunes", "Design", "Designer UX", "Design"},
}

// defaultTopics trả về bản mới mỗi lần gọi vì gorm ghi ID vào các slice con.
func defaultTopics() []models.Topic {
	return []models.Topic{
		{Title: "SQL Server", Category: "Banco de Dados", EstimatedTime: "2h",
			Description: "Banco de dados principal utilizado para armazenar dados de clientes e transações. Aprenda sobre configuração, otimização e melhores práticas.",
			Documents: []models.TopicDocument{
				{Title: "Manual SQL Server.pdf", Type: "pdf", URL: "#", Size: "2.5 MB"},
				{Title: "Guia de Consultas.pdf", Type: "pdf", URL: "#", Size: "1.8 MB"},
			},
			Links: []models.TopicLink{
				{Title: "Portal de Documentação Interna", URL: "https://docs.vivo.com/sql"},
				{Title: "Tutorial SQL Server Microsoft", URL: "https://docs.microsoft.com/sql"},
			},
			Contacts: []models.TopicContact{
				{Name: "Ana Silva", Role: "DBA Senior", Email: "ana.silva@vivo.com", Phone: "Ramal: 1234", Department: "Infraestrutura"},
			},
		},
		{Title: "Oracle", Category: "Banco de Dados", EstimatedTime: "1.5h", Description: "Banco de dados secundário utilizado para sistemas específicos e data warehouse."},
		{Title: "MongoDB", Category: "Banco de Dados", EstimatedTime: "3h", Description: "Banco de dados NoSQL para projetos específicos"},
		{Title: "Angular", Category: "Frontend", EstimatedTime: "4h", Description: "Framework frontend utilizado para desenvolvimento de SPAs"},
		{Title: "React", Category: "Frontend", EstimatedTime: "3.5h", Description: "Biblioteca JavaScript para construção de interfaces de usuário"},
		{Title: "ASP.NET Core", Category: "Backend", EstimatedTime: "5h", Description: "Framework backend para desenvolvimento de APIs REST"},
		{Title: "Docker", Category: "DevOps", EstimatedTime: "2.5h", Description: "Containerização de aplicações para deployment"},
		{Title: "Kubernetes", Category: "DevOps", EstimatedTime: "6h", Description: "Orquestração de containers em produção"},
		{Title: "Power BI", Category: "Análise de Dados", EstimatedTime: "3h", Description: "Ferramenta de Business Intelligence para análise de dados"},
		{Title: "Python para Dados", Category: "Análise de Dados", EstimatedTime: "4h", Description: "Linguagem Python aplicada à análise e ciência de dados"},
	}
}

// SeedResult đếm số bản ghi mới được tạo.
type SeedResult struct {
	Profiles int
	Accounts int
	Topics   int
}

// Seed tạo dữ liệu mẫu. Chạy lại nhiều lần không tạo bản ghi trùng.
func Seed(ctx context.Context, db *gorm.DB, logger *slog.Logger) (SeedResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var res SeedResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profiles := make(map[string]models.Profile, len(seedProfiles))
		for _, p := range seedProfiles {
			p.Active = true
			r := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).Create(&p)
			if r.Error != nil {
				return fmt.Errorf("seed profile %s: %w", p.Name, r.Error)
			}
			res.Profiles += int(r.RowsAffected)
			var stored models.Profile
			if err := tx.Where("name = ?", p.Name).First(&stored).Error; err != nil {
				return err
			}
			profiles[p.Name] = stored
		}

		now := time.Now().UTC()
		admin, created, err := seedAccount(tx, models.Account{
			Email: SeedAdminEmail, FullName: "Administrador Sistema", ProfileID: profiles["Administrador"].ID,
			Department: "TI", JobTitle: "Administrador",
		}, SeedAdminPassword)
		if err != nil {
			return err
		}
		res.Accounts += created

		hired := now.AddDate(0, 0, -60)
		manager, created, err := seedAccount(tx, models.Account{
			Email: SeedManagerEmail, FullName: "Ana Gestora", ProfileID: profiles["Gestão"].ID,
			Department: "Gestão", JobTitle: "Gerente de Equipe", ManagerID: &admin.ID, HiredAt: &hired,
		}, SeedManagerPass)
		if err != nil {
			return err
		}
		res.Accounts += created

		for i, m := range seedMembers {
			hiredAt := now.AddDate(0, 0, -7*(i+1))
			_, created, err := seedAccount(tx, models.Account{
				Email: m.email, FullName: m.name, ProfileID: profiles[m.profile].ID,
				Department: m.department, JobTitle: m.jobTitle, ManagerID: &manager.ID, HiredAt: &hiredAt,
			}, SeedMemberPass)
			if err != nil {
				return err
			}
			res.Accounts += created
		}

		for _, t := range defaultTopics() {
			t.Slug = slug.Make(t.Title)
			t.Active = true
			var count int64
			if err := tx.Model(&models.Topic{}).Where("slug = ?", t.Slug).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(&t).Error; err != nil {
				return fmt.Errorf("seed topic %s: %w", t.Title, err)
			}
			res.Topics++
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	logger.InfoContext(ctx, "seed finished", "profiles", res.Profiles, "accounts", res.Accounts, "topics", res.Topics)
	return res, nil
}

func seedAccount(tx *gorm.DB, acc models.Account, password string) (*models.Account, int, error) {
	var existing models.Account
	err := tx.Where("email = ?", acc.Email).Limit(1).Find(&existing).Error
	if err != nil {
		return nil, 0, err
	}
	if existing.ID != uuid.Nil {
		return &existing, 0, nil
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, 0, err
	}
	acc.PasswordHash = hashed
	acc.Active = true
	acc.FirstLogin = true
	if err := tx.Omit(clause.Associations).Create(&acc).Error; err != nil {
		return nil, 0, fmt.Errorf("seed account %s: %w", acc.Email, err)
	}
	return &acc, 1, nil
}
