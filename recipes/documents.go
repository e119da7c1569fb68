package recipes

// Operation documents sent to the Hasura endpoint.
const (
	listRecipesDoc = `
	  query GetRecipes($limit: Int, $offset: Int, $categoryId: uuid, $userId: uuid, $search: String) {
	    recipes(
	      limit: $limit
	      offset: $offset
	      order_by: { created_at: desc }
	      where: {
	        _and: [
	          { category_id: { _eq: $categoryId } }
	          { user_id: { _eq: $userId } }
	          { _or: [{ title: { _ilike: $search } }, { description: { _ilike: $search } }] }
	        ]
	      }
	    ) {
	      id
	      title
	      description
	      featured_image
	      prep_time_minutes
	      cook_time_minutes
	      servings
	      difficulty
	      average_rating
	      total_likes
	      total_bookmarks
	      total_ratings
	      created_at
	      category {
	        id
	        name
	        slug
	        icon
	      }
	      user {
	        id
	        name
	        email
	        avatar_url
	      }
	    }
	  }
	`

	listRecipesSimpleDoc = `
	  query GetRecipesSimple($limit: Int, $offset: Int) {
	    recipes(
	      limit: $limit
	      offset: $offset
	      order_by: { created_at: desc }
	    ) {
	      id
	      title
	      description
	      featured_image
	      prep_time_minutes
	      cook_time_minutes
	      servings
	      difficulty
	      average_rating
	      total_likes
	      total_bookmarks
	      total_ratings
	      created_at
	      category {
	        id
	        name
	        slug
	        icon
	      }
	      user {
	        id
	        name
	        email
	        avatar_url
	      }
	    }
	  }
	`

	getRecipeDoc = `
	  query GetRecipeById($id: uuid!) {
	    recipes_by_pk(id: $id) {
	      id
	      title
	      description
	      featured_image
	      prep_time_minutes
	      cook_time_minutes
	      servings
	      difficulty
	      average_rating
	      total_likes
	      total_bookmarks
	      total_ratings
	      created_at
	      updated_at
	      category {
	        id
	        name
	        slug
	        icon
	      }
	      user {
	        id
	        name
	        email
	        avatar_url
	        bio
	      }
	      ingredients(order_by: { display_order: asc }) {
	        id
	        name
	        quantity
	        unit
	        display_order
	      }
	      steps(order_by: { step_number: asc }) {
	        id
	        step_number
	        instruction
	        image_url
	      }
	      images(order_by: { display_order: asc }) {
	        id
	        image_url
	        is_featured
	        display_order
	      }
	      comments(order_by: { created_at: desc }) {
	        id
	        content
	        created_at
	        user {
	          id
	          name
	          avatar_url
	        }
	      }
	    }
	  }
	`

	listCategoriesDoc = `
	  query GetCategories {
	    categories(order_by: { name: asc }) {
	      id
	      name
	      slug
	      description
	      icon
	    }
	  }
	`

	listRecipesByUserDoc = `
	  query GetRecipesByUser($userId: uuid!) {
	    recipes(
	      where: { user_id: { _eq: $userId } }
	      order_by: { created_at: desc }
	    ) {
	      id
	      title
	      description
	      featured_image
	      prep_time_minutes
	      average_rating
	      total_likes
	      created_at
	      category {
	        id
	        name
	        icon
	      }
	      user {
	        id
	        name
	        email
	      }
	    }
	  }
	`

	checkLikeDoc = `
	  query CheckLike($recipeId: uuid!, $userId: uuid!) {
	    recipe_likes(
	      where: { recipe_id: { _eq: $recipeId }, user_id: { _eq: $userId } }
	    ) {
	      id
	    }
	  }
	`

	checkBookmarkDoc = `
	  query CheckBookmark($recipeId: uuid!, $userId: uuid!) {
	    recipe_bookmarks(
	      where: { recipe_id: { _eq: $recipeId }, user_id: { _eq: $userId } }
	    ) {
	      id
	    }
	  }
	`

	userRatingDoc = `
	  query GetUserRating($recipeId: uuid!, $userId: uuid!) {
	    recipe_ratings(
	      where: { recipe_id: { _eq: $recipeId }, user_id: { _eq: $userId } }
	    ) {
	      id
	      rating
	    }
	  }
	`

	createRecipeDoc = `
	  mutation CreateRecipe($recipe: recipes_insert_input!) {
	    insert_recipes_one(object: $recipe) {
	      id
	      title
	    }
	  }
	`

	updateRecipeDoc = `
	  mutation UpdateRecipe($id: uuid!, $recipe: recipes_set_input!) {
	    update_recipes_by_pk(pk_columns: { id: $id }, _set: $recipe) {
	      id
	      title
	    }
	  }
	`

	deleteRecipeDoc = `
	  mutation DeleteRecipe($id: uuid!) {
	    delete_recipes_by_pk(id: $id) {
	      id
	    }
	  }
	`

	likeDoc = `
	  mutation ToggleLike($recipeId: uuid!, $userId: uuid!) {
	    insert_recipe_likes_one(
	      object: { recipe_id: $recipeId, user_id: $userId }
	      on_conflict: { constraint: recipe_likes_recipe_id_user_id_key, update_columns: [] }
	    ) {
	      id
	    }
	  }
	`

	unlikeDoc = `
	  mutation RemoveLike($recipeId: uuid!, $userId: uuid!) {
	    delete_recipe_likes(
	      where: { recipe_id: { _eq: $recipeId }, user_id: { _eq: $userId } }
	    ) {
	      affected_rows
	    }
	  }
	`

	bookmarkDoc = `
	  mutation ToggleBookmark($recipeId: uuid!, $userId: uuid!) {
	    insert_recipe_bookmarks_one(
	      object: { recipe_id: $recipeId, user_id: $userId }
	      on_conflict: { constraint: recipe_bookmarks_recipe_id_user_id_key, update_columns: [] }
	    ) {
	      id
	    }
	  }
	`

	unbookmarkDoc = `
	  mutation RemoveBookmark($recipeId: uuid!, $userId: uuid!) {
	    delete_recipe_bookmarks(
	      where: { recipe_id: { _eq: $recipeId }, user_id: { _eq: $userId } }
	    ) {
	      affected_rows
	    }
	  }
	`

	addCommentDoc = `
	  mutation AddComment($recipeId: uuid!, $userId: uuid!, $content: String!) {
	    insert_recipe_comments_one(
	      object: { recipe_id: $recipeId, user_id: $userId, content: $content }
	    ) {
	      id
	      content
	      created_at
	      user {
	        id
	        name
	        avatar_url
	      }
	    }
	  }
	`

	rateDoc = `
	  mutation AddRating($recipeId: uuid!, $userId: uuid!, $rating: Int!) {
	    insert_recipe_ratings_one(
	      object: { recipe_id: $recipeId, user_id: $userId, rating: $rating }
	      on_conflict: { constraint: recipe_ratings_recipe_id_user_id_key, update_columns: [rating, updated_at] }
	    ) {
	      id
	      rating
	    }
	  }
	`
)
