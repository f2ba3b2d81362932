package services

import (
	"fmt"

	"KopiPos/app/apperrors"
	"KopiPos/app/models"
	"KopiPos/app/websocket"

	"gorm.io/gorm"
)

// MaterialService handles the raw-material catalog.
type MaterialService struct {
	*BaseService
}

// NewMaterialService creates a new material service
func NewMaterialService() *MaterialService {
	return &MaterialService{BaseService: NewBaseService()}
}

// ListMaterials retrieves all materials ordered by name.
func (s *MaterialService) ListMaterials() ([]models.Material, error) {
	var materials []models.Material
	err := s.db.Order("name ASC").Find(&materials).Error
	return materials, err
}

// GetMaterial retrieves a single material by ID.
func (s *MaterialService) GetMaterial(id uint) (*models.Material, error) {
	var material models.Material
	if err := s.db.First(&material, id).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

// CreateMaterial creates a new material.
func (s *MaterialService) CreateMaterial(req models.SaveMaterialRequest) (*models.Material, error) {
	if err := validateMaterial(req); err != nil {
		return nil, err
	}

	material := models.Material{
		Name:          req.Name,
		Unit:          req.Unit,
		PackageSize:   req.PackageSize,
		PurchasePrice: req.PurchasePrice,
	}
	if err := s.db.Create(&material).Error; err != nil {
		return nil, fmt.Errorf("failed to create material: %w", err)
	}

	s.publish(websocket.TableMaterials, websocket.ActionInsert, &material, nil)
	return &material, nil
}

// UpdateMaterial updates an existing material. Ingredient costs computed from
// the old price are not recomputed; they were fixed at save time.
func (s *MaterialService) UpdateMaterial(id uint, req models.SaveMaterialRequest) (*models.Material, error) {
	if err := validateMaterial(req); err != nil {
		return nil, err
	}

	var previous models.Material
	if err := s.db.First(&previous, id).Error; err != nil {
		return nil, err
	}

	material := previous
	material.Name = req.Name
	material.Unit = req.Unit
	material.PackageSize = req.PackageSize
	material.PurchasePrice = req.PurchasePrice

	if err := s.db.Save(&material).Error; err != nil {
		return nil, fmt.Errorf("failed to update material: %w", err)
	}

	s.publish(websocket.TableMaterials, websocket.ActionUpdate, &material, &previous)
	return &material, nil
}

// DeleteMaterial physically deletes a material. Ingredients referencing it
// keep their saved cost but lose the reference (material_id set to null in
// the same transaction, so the weak-reference rule holds on every driver).
func (s *MaterialService) DeleteMaterial(id uint) error {
	var material models.Material
	if err := s.db.First(&material, id).Error; err != nil {
		return err
	}

	err := s.WithTransaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Ingredient{}).
			Where("material_id = ?", id).
			Update("material_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach ingredients: %w", err)
		}
		return tx.Delete(&models.Material{}, id).Error
	})
	if err != nil {
		return err
	}

	s.publish(websocket.TableMaterials, websocket.ActionDelete, nil, &material)
	return nil
}

func validateMaterial(req models.SaveMaterialRequest) error {
	if err := validate.Struct(req); err != nil {
		return validationError(err)
	}
	if !req.Unit.Valid() {
		return apperrors.NewValidation("unit", "unknown unit %q", req.Unit)
	}
	return nil
}
