package services

import (
	"fmt"

	"KopiPos/app/apperrors"
	"KopiPos/app/models"
	"KopiPos/app/websocket"

	"gorm.io/gorm"
)

// MenuService handles menu items and their ingredient recipes. Ingredient
// costs are fixed when the recipe is saved: entered manually, or computed
// from the referenced material's unit cost. The item cost is the sum of its
// ingredient costs at that moment and is not recomputed when material prices
// change later.
type MenuService struct {
	*BaseService
}

// NewMenuService creates a new menu service
func NewMenuService() *MenuService {
	return &MenuService{BaseService: NewBaseService()}
}

// ListMenuItems retrieves all menu items without recipes.
func (s *MenuService) ListMenuItems() ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.Order("category ASC, name ASC").Find(&items).Error
	return items, err
}

// GetMenuItemDetail returns a menu item with its ingredients and their
// materials.
func (s *MenuService) GetMenuItemDetail(id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.db.Preload("Ingredients.Material").First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateMenuItem creates a menu item with its recipe and computes its cost.
func (s *MenuService) CreateMenuItem(req models.SaveMenuItemRequest) (*models.MenuItem, error) {
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	status := req.Status
	if status == "" {
		status = models.MenuItemActive
	}

	item := models.MenuItem{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Status:   status,
	}

	err := s.WithTransaction(func(tx *gorm.DB) error {
		ingredients, err := s.buildIngredients(tx, req.Ingredients)
		if err != nil {
			return err
		}
		item.Ingredients = ingredients
		item.RecomputeCost()
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}

	created, err := s.GetMenuItemDetail(item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload menu item: %w", err)
	}

	s.publish(websocket.TableMenuItems, websocket.ActionInsert, created, nil)
	return created, nil
}

// UpdateMenuItem updates a menu item, replacing its ingredient list
// wholesale and recomputing the cost.
func (s *MenuService) UpdateMenuItem(id uint, req models.SaveMenuItemRequest) (*models.MenuItem, error) {
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	var previous models.MenuItem
	if err := s.db.Preload("Ingredients").First(&previous, id).Error; err != nil {
		return nil, err
	}

	item := models.MenuItem{
		ID:       id,
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Status:   req.Status,
	}
	if item.Status == "" {
		item.Status = previous.Status
	}

	err := s.WithTransaction(func(tx *gorm.DB) error {
		// Replace the recipe: delete existing lines, then recreate
		if err := tx.Where("menu_item_id = ?", id).Delete(&models.Ingredient{}).Error; err != nil {
			return fmt.Errorf("failed to delete existing ingredients: %w", err)
		}

		ingredients, err := s.buildIngredients(tx, req.Ingredients)
		if err != nil {
			return err
		}
		for i := range ingredients {
			ingredients[i].MenuItemID = id
		}
		item.Ingredients = ingredients
		item.RecomputeCost()

		if err := tx.Model(&models.MenuItem{}).Where("id = ?", id).Updates(map[string]interface{}{
			"name":     item.Name,
			"category": item.Category,
			"price":    item.Price,
			"status":   item.Status,
			"cost":     item.Cost,
		}).Error; err != nil {
			return fmt.Errorf("failed to update menu item: %w", err)
		}

		for i := range ingredients {
			if err := tx.Create(&ingredients[i]).Error; err != nil {
				return fmt.Errorf("failed to create ingredient: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.GetMenuItemDetail(id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload menu item: %w", err)
	}

	s.publish(websocket.TableMenuItems, websocket.ActionUpdate, updated, &previous)
	return updated, nil
}

// SetMenuItemStatus flips a menu item between active and inactive.
func (s *MenuService) SetMenuItemStatus(id uint, status models.MenuItemStatus) (*models.MenuItem, error) {
	if status != models.MenuItemActive && status != models.MenuItemInactive {
		return nil, apperrors.NewValidation("status", "unknown status %q", status)
	}

	var previous models.MenuItem
	if err := s.db.First(&previous, id).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.MenuItem{}).Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return nil, err
	}

	updated, err := s.GetMenuItemDetail(id)
	if err != nil {
		return nil, err
	}

	s.publish(websocket.TableMenuItems, websocket.ActionUpdate, updated, &previous)
	return updated, nil
}

// DeleteMenuItem physically deletes a menu item; its ingredients cascade.
// Past order items keep their snapshot of name and price via price_at_time.
func (s *MenuService) DeleteMenuItem(id uint) error {
	deleted, err := s.GetMenuItemDetail(id)
	if err != nil {
		return err
	}

	err = s.WithTransaction(func(tx *gorm.DB) error {
		if err := tx.Where("menu_item_id = ?", id).Delete(&models.Ingredient{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.MenuItem{}, id).Error
	})
	if err != nil {
		return err
	}

	s.publish(websocket.TableMenuItems, websocket.ActionDelete, nil, deleted)
	return nil
}

// buildIngredients resolves recipe lines into ingredient rows, computing the
// cost from the material unit cost when none was entered.
func (s *MenuService) buildIngredients(tx *gorm.DB, lines []models.SaveIngredientRequest) ([]models.Ingredient, error) {
	ingredients := make([]models.Ingredient, 0, len(lines))
	for _, line := range lines {
		ing := models.Ingredient{
			MaterialID: line.MaterialID,
			Name:       line.Name,
			Quantity:   line.Quantity,
			Unit:       line.Unit,
			Cost:       line.Cost,
		}

		if line.MaterialID != nil {
			var material models.Material
			if err := tx.First(&material, *line.MaterialID).Error; err != nil {
				return nil, apperrors.NewValidation("ingredients", "material %d not found", *line.MaterialID)
			}
			if ing.Name == "" {
				ing.Name = material.Name
			}
			if ing.Unit == "" {
				ing.Unit = material.Unit.String()
			}
			if ing.Cost == 0 {
				ing.Cost = material.CostFor(line.Quantity)
			}
		}

		ingredients = append(ingredients, ing)
	}
	return ingredients, nil
}
